package seed

import (
	_ "embed"
	"fmt"

	"evcircle/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var catalogYAML []byte

type city struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

type communitySeed struct {
	Slug        string               `yaml:"slug"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Kind        models.CommunityType `yaml:"type"`
}

type questionSeed struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

type articleSeed struct {
	Kind    models.ArticleKind `yaml:"kind"`
	Title   string             `yaml:"title"`
	Summary string             `yaml:"summary"`
	Tags    []string           `yaml:"tags"`
}

type catalog struct {
	Vehicles      []string        `yaml:"vehicles"`
	Connectors    []string        `yaml:"connectors"`
	Networks      []string        `yaml:"networks"`
	Cities        []city          `yaml:"cities"`
	Communities   []communitySeed `yaml:"communities"`
	PostTemplates []string        `yaml:"post_templates"`
	Comments      []string        `yaml:"comments"`
	Questions     []questionSeed  `yaml:"questions"`
	Articles      []articleSeed   `yaml:"articles"`
}

func parseCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, cs := range c.Communities {
		if !cs.Kind.Valid() {
			return nil, fmt.Errorf("community %q: unknown type %q", cs.Slug, cs.Kind)
		}
	}
	for _, a := range c.Articles {
		if !a.Kind.Valid() {
			return nil, fmt.Errorf("article %q: unknown kind %q", a.Title, a.Kind)
		}
	}
	if len(c.Vehicles) == 0 || len(c.Cities) == 0 || len(c.PostTemplates) == 0 || len(c.Comments) == 0 {
		return nil, fmt.Errorf("catalog is missing vehicles, cities, post templates or comments")
	}
	return &c, nil
}

func mustLoadCatalog() *catalog {
	c, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCatalog = mustLoadCatalog()

var (
	vehicles       = defaultCatalog.Vehicles
	connectorTypes = defaultCatalog.Connectors
	networks       = defaultCatalog.Networks
	cities         = defaultCatalog.Cities
	communities    = defaultCatalog.Communities
	postTemplates  = defaultCatalog.PostTemplates
	commentLines   = defaultCatalog.Comments
	forumQuestions = defaultCatalog.Questions
	articles       = defaultCatalog.Articles
)
