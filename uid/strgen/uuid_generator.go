package strgen

import (
	"encoding/hex"

	"github.com/google/uuid"
)

type UUIDOptions struct {
	Version     string `cfg:"version" def:"v4" validate:"omitempty,oneof=v1 v4 v6 v7"`
	WithHyphens bool   `cfg:"withHyphens"`
}

type UUIDGenerator struct {
	newUUID     func() (uuid.UUID, error)
	withHyphens bool
}

func NewUUIDGeneratorWithOptions(options *UUIDOptions) *UUIDGenerator {
	if options == nil {
		options = &UUIDOptions{}
	}
	g := &UUIDGenerator{withHyphens: options.WithHyphens}
	switch options.Version {
	case "v1":
		g.newUUID = uuid.NewUUID
	case "v6":
		g.newUUID = uuid.NewV6
	case "v7":
		g.newUUID = uuid.NewV7
	default:
		g.newUUID = uuid.NewRandom
	}
	return g
}

func (g *UUIDGenerator) Generate() string {
	u := uuid.Must(g.newUUID())
	if g.withHyphens {
		return u.String()
	}
	return hex.EncodeToString(u[:])
}
