package persistence

import (
	"github.com/asaidimu/go-memtable/utils"
)

// CreateAs stores entity in the model's table and decodes the stored record
// back into T.
func CreateAs[T any](p *Persistence, model string, entity T) (T, error) {
	var zero T
	doc, err := utils.StructToDocument(entity)
	if err != nil {
		return zero, err
	}
	created, err := p.Create(CreateParams{Model: model, Data: doc})
	if err != nil {
		return zero, err
	}
	return utils.DocumentToStruct[T](created)
}

// FindOneAs is FindOne decoding into T. It returns nil when nothing matches.
func FindOneAs[T any](p *Persistence, params FindParams) (*T, error) {
	doc, err := p.FindOne(params)
	if err != nil || doc == nil {
		return nil, err
	}
	out, err := utils.DocumentToStruct[T](doc)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindManyAs is FindMany decoding every record into T.
func FindManyAs[T any](p *Persistence, params FindManyParams) ([]T, error) {
	docs, err := p.FindMany(params)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := utils.DocumentToStruct[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
