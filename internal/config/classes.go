package config

import (
	"fmt"

	"github.com/okian/accelstream/internal/domain/model"
)

// ClassTable converts the configured classes, in order, into the domain
// class table.
func (c *Config) ClassTable() (model.ClassTable, error) {
	table := make(model.ClassTable, 0, len(c.Classes))
	for _, cl := range c.Classes {
		def, err := model.NewClassDef(cl.Name, cl.OneHot, cl.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		table = append(table, def)
	}
	return table, nil
}
