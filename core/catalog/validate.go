package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/scheduler"
)

// Validator checks catalogs with struct tags plus cross-entity rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a validator with the clock tag registered.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := scheduler.ParseClock(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

// Validate reports the first problem found in cat. Students, instructors,
// aircraft and simulators share one booking namespace, so their ids must be
// unique across all four collections.
func (v *Validator) Validate(cat model.Catalog) error {
	if err := v.validate.Struct(cat); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	seen := make(map[string]string)
	check := func(kind, id string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("catalog: duplicate id %q (%s and %s)", id, prev, kind)
		}
		seen[id] = kind
		return nil
	}
	for _, s := range cat.Students {
		if err := check("student", s.ID); err != nil {
			return err
		}
	}
	for _, i := range cat.Instructors {
		if err := check("instructor", i.ID); err != nil {
			return err
		}
	}
	for _, a := range cat.Aircraft {
		if err := check("aircraft", a.ID); err != nil {
			return err
		}
	}
	for _, s := range cat.Simulators {
		if err := check("simulator", s.ID); err != nil {
			return err
		}
	}
	slots := make(map[string]bool, len(cat.TimeSlots))
	for _, ts := range cat.TimeSlots {
		if slots[ts.ID] {
			return fmt.Errorf("catalog: duplicate time slot %q", ts.ID)
		}
		slots[ts.ID] = true
	}
	return nil
}

// Hash returns a hex SHA-256 of the catalog content.
func Hash(cat model.Catalog) (string, error) {
	b, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
