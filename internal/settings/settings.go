// Package settings models the tunable parameters of the map generation
// pipeline: per-stage categories with defaults, raw JSON overrides for
// expert users, and the limits applied on a public deployment.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mapforge/internal/domain"
)

// DEMSettings controls the digital elevation model stage.
type DEMSettings struct {
	Multiplier int `json:"multiplier"`
	BlurRadius int `json:"blur_radius"`
	Plateau    int `json:"plateau"`
	WaterDepth int `json:"water_depth"`
}

// BackgroundSettings controls the background terrain stage.
type BackgroundSettings struct {
	GenerateBackground bool `json:"generate_background"`
	GenerateWater      bool `json:"generate_water"`
	ResizeFactor       int  `json:"resize_factor"`
}

// GRLESettings controls the info-layer stage.
type GRLESettings struct {
	FarmlandMargin int  `json:"farmland_margin"`
	RandomPlants   bool `json:"random_plants"`
}

// I3DSettings controls the scene description stage.
type I3DSettings struct {
	ForestDensity int `json:"forest_density"`
}

// TextureSettings controls the texture stage.
type TextureSettings struct {
	Dissolve      bool `json:"dissolve"`
	FieldsPadding int  `json:"fields_padding"`
	SkipDrains    bool `json:"skip_drains"`
}

// SplineSettings controls the spline stage.
type SplineSettings struct {
	SplineDensity int `json:"spline_density"`
}

// Generation bundles every settings category passed to the engine.
type Generation struct {
	DEM        DEMSettings        `json:"DEMSettings"`
	Background BackgroundSettings `json:"BackgroundSettings"`
	GRLE       GRLESettings       `json:"GRLESettings"`
	I3D        I3DSettings        `json:"I3DSettings"`
	Texture    TextureSettings    `json:"TextureSettings"`
	Spline     SplineSettings     `json:"SplineSettings"`
}

const (
	// PublicResizeFactor is forced on public deployments to keep background
	// resampling cheap.
	PublicResizeFactor = 8
)

// Default returns the settings used when a request omits them.
func Default() Generation {
	return Generation{
		DEM:        DEMSettings{Multiplier: 1, BlurRadius: 35},
		Background: BackgroundSettings{GenerateBackground: true, GenerateWater: true, ResizeFactor: 2},
		GRLE:       GRLESettings{FarmlandMargin: 0, RandomPlants: true},
		I3D:        I3DSettings{ForestDensity: 10},
		Texture:    TextureSettings{Dissolve: true, FieldsPadding: 0},
		Spline:     SplineSettings{SplineDensity: 2},
	}
}

// FromRawJSON parses an expert-mode raw configuration. Malformed JSON is an
// input error: nothing has been reserved yet when overrides are parsed.
func FromRawJSON(raw []byte) (Generation, error) {
	gen := Default()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&gen); err != nil {
		return Generation{}, domain.NewInputError("raw_config", fmt.Sprintf("invalid raw configuration: %v", err))
	}
	return gen, nil
}

// LimitForPublic caps the expensive knobs on a public deployment. The
// returned value is a copy; the caller's settings are untouched.
func (g Generation) LimitForPublic() Generation {
	limited := g
	limited.Background.ResizeFactor = PublicResizeFactor
	limited.Texture.Dissolve = false
	return limited
}

var titleCaser = cases.Title(language.English)

// HumanLabel converts a snake_case field name into a display label, e.g.
// "resize_factor" becomes "Resize Factor".
func HumanLabel(field string) string {
	return titleCaser.String(strings.ReplaceAll(field, "_", " "))
}

// Schema describes the settings surface for clients rendering a form.
type Schema struct {
	Categories []SchemaCategory `json:"categories"`
}

// SchemaCategory is one settings group with its fields and defaults.
type SchemaCategory struct {
	Name   string        `json:"name"`
	Label  string        `json:"label"`
	Fields []SchemaField `json:"fields"`
}

// SchemaField describes one tunable value.
type SchemaField struct {
	Name             string `json:"name"`
	Label            string `json:"label"`
	Type             string `json:"type"`
	Default          any    `json:"default"`
	DisabledOnPublic bool   `json:"disabled_on_public,omitempty"`
}

// publicDisabledFields cannot be changed on a public deployment.
var publicDisabledFields = map[string]struct{}{
	"resize_factor": {},
	"dissolve":      {},
}

// DisabledOnPublic reports whether the field is locked on public servers.
func DisabledOnPublic(field string) bool {
	_, ok := publicDisabledFields[field]
	return ok
}

// BuildSchema renders the schema for the default settings.
func BuildSchema() Schema {
	defaults := Default()
	return Schema{Categories: []SchemaCategory{
		{
			Name:  "DEMSettings",
			Label: "DEM Settings",
			Fields: []SchemaField{
				intField("multiplier", defaults.DEM.Multiplier),
				intField("blur_radius", defaults.DEM.BlurRadius),
				intField("plateau", defaults.DEM.Plateau),
				intField("water_depth", defaults.DEM.WaterDepth),
			},
		},
		{
			Name:  "BackgroundSettings",
			Label: "Background Settings",
			Fields: []SchemaField{
				boolField("generate_background", defaults.Background.GenerateBackground),
				boolField("generate_water", defaults.Background.GenerateWater),
				intField("resize_factor", defaults.Background.ResizeFactor),
			},
		},
		{
			Name:  "GRLESettings",
			Label: "GRLE Settings",
			Fields: []SchemaField{
				intField("farmland_margin", defaults.GRLE.FarmlandMargin),
				boolField("random_plants", defaults.GRLE.RandomPlants),
			},
		},
		{
			Name:  "I3DSettings",
			Label: "I3D Settings",
			Fields: []SchemaField{
				intField("forest_density", defaults.I3D.ForestDensity),
			},
		},
		{
			Name:  "TextureSettings",
			Label: "Texture Settings",
			Fields: []SchemaField{
				boolField("dissolve", defaults.Texture.Dissolve),
				intField("fields_padding", defaults.Texture.FieldsPadding),
				boolField("skip_drains", defaults.Texture.SkipDrains),
			},
		},
		{
			Name:  "SplineSettings",
			Label: "Spline Settings",
			Fields: []SchemaField{
				intField("spline_density", defaults.Spline.SplineDensity),
			},
		},
	}}
}

func intField(name string, def int) SchemaField {
	return SchemaField{Name: name, Label: HumanLabel(name), Type: "int", Default: def, DisabledOnPublic: DisabledOnPublic(name)}
}

func boolField(name string, def bool) SchemaField {
	return SchemaField{Name: name, Label: HumanLabel(name), Type: "bool", Default: def, DisabledOnPublic: DisabledOnPublic(name)}
}
