package catalog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CatalogFile represents the top-level YAML structure of a card catalog.
type CatalogFile struct {
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a single card in the YAML file.
type CardEntry struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"name"`
	Cost      int      `yaml:"cost"`
	Power     int      `yaml:"power"`
	Abilities []string `yaml:"abilities"`
}

// LoadFile parses a YAML card catalog and returns a populated registry.
// Unknown ability tags are dropped here, at load time, with a warning;
// they never reach resolution.
func LoadFile(path string, logger *zap.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf CatalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}

	cards := make([]Card, 0, len(cf.Cards))
	for _, entry := range cf.Cards {
		card := Card{
			ID:    entry.ID,
			Name:  entry.Name,
			Cost:  entry.Cost,
			Power: entry.Power,
		}
		for _, tag := range entry.Abilities {
			kind, ok := ParseAbilityKind(tag)
			if !ok {
				logger.Warn("dropping unknown ability tag",
					zap.Int("card_id", entry.ID),
					zap.String("card_name", entry.Name),
					zap.String("tag", tag),
				)
				continue
			}
			card.Abilities = append(card.Abilities, kind)
		}
		cards = append(cards, card)
	}

	return NewRegistry(cards)
}
