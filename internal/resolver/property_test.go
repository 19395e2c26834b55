package resolver

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"hawk/internal/component"
	"hawk/internal/config"
)

var alphabet = []string{"a", "b", "c", "d", "ghost"}

func refs(idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, alphabet[i])
	}
	return out
}

func buildLayer(kind config.Kind, name string, enabled, disabled []int) *config.Layer {
	doc := fmt.Sprintf("skills: {enabled: [%s], disabled: [%s]}\n",
		strings.Join(refs(enabled), ", "), strings.Join(refs(disabled), ", "))
	l, err := config.ParseLayer(kind, name, "/layers/"+name, []byte(doc))
	if err != nil {
		panic(err)
	}
	return l
}

func skillNames(rs *ResolvedSet) []string {
	return names(rs.Types[component.TypeSkill])
}

func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	refGen := gen.SliceOf(gen.IntRange(0, len(alphabet)-1))
	store := testStore()

	properties.Property("identical inputs give identical sets and warnings", prop.ForAll(
		func(ge, gd, de, dd []int) bool {
			set := layerSet(
				buildLayer(config.KindGlobal, "global", ge, gd),
				buildLayer(config.KindDirectory, "repo", de, dd),
			)
			first, err := New(store, nil).Resolve(context.Background(), set)
			if err != nil {
				return false
			}
			second, err := New(store, nil).Resolve(context.Background(), set)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(skillNames(first), skillNames(second)) &&
				reflect.DeepEqual(first.Warnings, second.Warnings) &&
				first.Hash == second.Hash
		},
		refGen, refGen, refGen, refGen,
	))

	properties.Property("nearest layer disable always wins", prop.ForAll(
		func(ge, de []int, victim int) bool {
			set := layerSet(
				buildLayer(config.KindGlobal, "global", ge, nil),
				buildLayer(config.KindDirectory, "repo", de, []int{victim}),
			)
			rs, err := New(store, nil).Resolve(context.Background(), set)
			if err != nil {
				return false
			}
			for _, n := range skillNames(rs) {
				if n == alphabet[victim] {
					return false
				}
			}
			return true
		},
		refGen, refGen, gen.IntRange(0, len(alphabet)-1),
	))

	properties.Property("nearest layer enable of a resolvable name always wins", prop.ForAll(
		func(ge, gd []int, winner int) bool {
			set := layerSet(
				buildLayer(config.KindGlobal, "global", ge, gd),
				buildLayer(config.KindDirectory, "repo", []int{winner}, nil),
			)
			rs, err := New(store, nil).Resolve(context.Background(), set)
			if err != nil {
				return false
			}
			for _, n := range skillNames(rs) {
				if n == alphabet[winner] {
					return true
				}
			}
			return false
		},
		refGen, refGen, gen.IntRange(0, 3),
	))

	properties.Property("output never contains duplicates or unresolvable names", prop.ForAll(
		func(ge, gd, de, dd []int) bool {
			set := layerSet(
				buildLayer(config.KindGlobal, "global", ge, gd),
				buildLayer(config.KindDirectory, "repo", de, dd),
			)
			rs, err := New(store, nil).Resolve(context.Background(), set)
			if err != nil {
				return false
			}
			seen := map[string]bool{}
			for _, n := range skillNames(rs) {
				if seen[n] || n == "ghost" {
					return false
				}
				seen[n] = true
			}
			return true
		},
		refGen, refGen, refGen, refGen,
	))

	properties.TestingRun(t)
}
