package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/chronorag/core"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// If we're in the core subpackage, cd up to project root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/chronorag/core"),
	)
	if err != nil {
		panic(err)
	}

	// Unix micro timestamps, decoded as UTC
	utc := typeops.WithTimeUnit(typeops.MicroUTC)
	err = g.AddStruct(reflect.TypeFor[core.TimeWindow](),
		structops.WithField(utc),
		structops.WithField(utc))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.ChunkRecord](),
		structops.WithField(), // ChunkID
		structops.WithField(), // DocID
		structops.WithField(), // Text
		structops.WithField(), // URI
		structops.WithField(), // Authority
		structops.WithField(), // ValidWindow
		structops.WithField(), // TxWindow
		structops.WithField(), // ExternalID
		structops.WithField(), // VersionID
		structops.WithField(), // Facets
		structops.WithField(), // Entities
		structops.WithField(), // Tags
		structops.WithField(), // Units
		structops.WithField(), // TimeGranularity
		structops.WithField(), // TimeSigmaDays
		structops.WithField(), // Vector
		structops.WithField()) // Extra
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.DocumentRecord](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	err = os.WriteFile("./core/records_mus.gen.go", bs, 0644)
	if err != nil {
		panic(err)
	}
}
