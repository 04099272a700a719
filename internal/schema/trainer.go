package schema

import (
	_ "embed"
	"sync"
)

//go:embed trainer.graphql
var trainerSDL string

var trainer = sync.OnceValue(func() *Schema {
	s, err := BuildFromSDL("trainer.graphql", trainerSDL)
	if err != nil {
		panic(err)
	}
	return s
})

// Trainer returns the built-in orders/users schema. The value is shared and
// must be treated as read-only.
func Trainer() *Schema { return trainer() }

// TrainerSDL returns the SDL the built-in schema was built from.
func TrainerSDL() string { return trainerSDL }
