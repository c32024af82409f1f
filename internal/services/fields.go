// Package services holds request checks shared by the entity services.
package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

// Column limits shared by the entity services.
const (
	MaxNameLength   = 255
	MaxSourceLength = 50
)

// ParseID parses a path or body id, reporting failures against field.
func ParseID(field, raw string) (uuid.UUID, error) {
	v := common.NewValidator().Field(field, strings.TrimSpace(raw), common.UUID)
	if err := v.Error(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(strings.TrimSpace(raw)), nil
}

// TrimPatch trims a supplied value and turns a blank one into a clear.
func TrimPatch(p utils.Patch[string]) utils.Patch[string] {
	if !p.Set {
		return p
	}
	return utils.Patch[string]{Set: true, Value: utils.TrimmedOrNil(p.Value)}
}
