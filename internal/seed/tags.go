package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"artfeed/internal/models"
	"artfeed/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed tags.yml
var tagsFixture []byte

// TagFixture is one entry of the built-in tag list.
type TagFixture struct {
	Name  string `yaml:"name"`
	Slug  string `yaml:"slug"`
	Image string `yaml:"image"`
	Order int    `yaml:"order"`
}

// BuiltInTags decodes the embedded tag list.
func BuiltInTags() ([]TagFixture, error) {
	var out []TagFixture
	dec := yaml.NewDecoder(bytes.NewReader(tagsFixture))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tags fixture: %w", err)
	}
	return out, nil
}

// Tags upserts the built-in tags and returns them in fixture order.
func Tags(ctx context.Context, repo repository.TagRepository) ([]models.Tag, error) {
	fixtures, err := BuiltInTags()
	if err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(fixtures))
	for _, f := range fixtures {
		tag := models.Tag{Name: f.Name, Slug: f.Slug, Image: f.Image, Order: f.Order}
		if err := repo.Upsert(ctx, &tag); err != nil {
			return nil, fmt.Errorf("seed tag %s: %w", f.Slug, err)
		}
		// An upsert that hit the conflict branch may not report the row id.
		stored, err := repo.GetBySlug(ctx, f.Slug)
		if err != nil {
			return nil, fmt.Errorf("reload tag %s: %w", f.Slug, err)
		}
		tags = append(tags, *stored)
	}
	return tags, nil
}
