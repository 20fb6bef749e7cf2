package ingest

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/david/artify/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the seed sources and the extraction rules. It is loaded once per
// process and passed by pointer into the pipeline; nothing mutates it afterwards.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
	Rules   Rules          `yaml:"rules"`
}

// SourceConfig defines a single listing page to scrape.
type SourceConfig struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Group       string         `yaml:"group"`
	URL         string         `yaml:"url"`
	Strategy    string         `yaml:"strategy"` // "listing_cards", "page_blocks", "heading_scan"
	Enabled     bool           `yaml:"enabled"`
	MaxItems    int            `yaml:"max_items,omitempty"`
	FollowLinks bool           `yaml:"follow_links,omitempty"`
	Selectors   SelectorConfig `yaml:"selectors,omitempty"`
	Description string         `yaml:"description,omitempty"`
}

type SelectorConfig struct {
	Container string `yaml:"container,omitempty"` // CSS selector for the list item wrapper
	Link      string `yaml:"link,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Match     string `yaml:"match,omitempty"` // regex a block/heading must match to count
}

// Rules are the keyword tables and constants behind every heuristic.
type Rules struct {
	HomeCountry    string            `yaml:"home_country"`
	TypeRules      []TypeRule        `yaml:"type_rules"`
	DomainKeywords []string          `yaml:"domain_keywords"`
	GenericTitles  []string          `yaml:"generic_titles"`
	ConnectorWords []string          `yaml:"connector_words"`
	FreeFeePhrases []string          `yaml:"free_fee_phrases"`
	Gazetteer      Gazetteer         `yaml:"gazetteer"`
	Difficulty     DifficultyWeights `yaml:"difficulty"`
	Tips           []TipRule         `yaml:"tips"`
	DefaultTip     string            `yaml:"default_tip"`
}

// TypeRule maps keywords to a type. Rules are checked in order; the first hit wins.
type TypeRule struct {
	Type     models.OpportunityType `yaml:"type"`
	Keywords []string               `yaml:"keywords"`
}

type Gazetteer struct {
	// Domestic place names all map to Rules.HomeCountry.
	Domestic              []string       `yaml:"domestic"`
	Countries             []CountryEntry `yaml:"countries"`
	InternationalKeywords []string       `yaml:"international_keywords"`
	InternationalLabel    string         `yaml:"international_label"`
}

type CountryEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type TipRule struct {
	Keywords []string `yaml:"keywords"`
	Tip      string   `yaml:"tip"`
}

// LoadRegistry reads sources and rules from path, or from the embedded
// config/sources.yaml when path is empty. Environment variables are expanded.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes YAML, fills unset rule tables with defaults and validates.
func ParseRegistry(data []byte) (*Registry, error) {
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	reg.Rules = reg.Rules.withDefaults()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks source definitions and rule tables.
func (r *Registry) Validate() error {
	seen := make(map[string]bool, len(r.Sources))
	for _, src := range r.Sources {
		if src.ID == "" {
			return fmt.Errorf("registry: source without id")
		}
		if seen[src.ID] {
			return fmt.Errorf("registry: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if !strings.HasPrefix(src.URL, "http://") && !strings.HasPrefix(src.URL, "https://") {
			return fmt.Errorf("registry: source %q has invalid url %q", src.ID, src.URL)
		}
		if _, err := GlobalStrategyFactory.Get(src.Strategy); err != nil {
			return fmt.Errorf("registry: source %q: %w", src.ID, err)
		}
		if src.Selectors.Match != "" {
			if _, err := regexp.Compile("(?i)" + src.Selectors.Match); err != nil {
				return fmt.Errorf("registry: source %q: invalid match pattern: %w", src.ID, err)
			}
		}
		if src.MaxItems < 0 {
			return fmt.Errorf("registry: source %q: max_items must not be negative", src.ID)
		}
	}
	for _, tr := range r.Rules.TypeRules {
		if _, ok := models.ParseOpportunityType(string(tr.Type)); !ok {
			return fmt.Errorf("registry: unknown type %q in type_rules", tr.Type)
		}
	}
	return r.Rules.Difficulty.validate()
}

// Select returns the enabled sources whose id or group is listed; an empty list selects all enabled.
func (r *Registry) Select(keys []string) []SourceConfig {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			want[strings.ToLower(k)] = true
		}
	}
	var out []SourceConfig
	for _, src := range r.Sources {
		if len(want) == 0 {
			if src.Enabled {
				out = append(out, src)
			}
			continue
		}
		if want[strings.ToLower(src.ID)] || want[strings.ToLower(src.Group)] {
			out = append(out, src)
		}
	}
	return out
}

// DefaultRules returns the built-in rule tables.
func DefaultRules() Rules {
	return Rules{}.withDefaults()
}

func (r Rules) withDefaults() Rules {
	if r.HomeCountry == "" {
		r.HomeCountry = "Argentina"
	}
	if len(r.TypeRules) == 0 {
		r.TypeRules = []TypeRule{
			{Type: models.TypeResidency, Keywords: []string{"residenc"}},
			{Type: models.TypeGrant, Keywords: []string{"beca"}},
			{Type: models.TypePrize, Keywords: []string{"premio", "salón", "salon", "concurso"}},
			{Type: models.TypeOpenCall, Keywords: []string{"open call", "convocatoria"}},
			{Type: models.TypeExhibition, Keywords: []string{"exposición", "exposicion"}},
		}
	}
	if len(r.DomainKeywords) == 0 {
		r.DomainKeywords = []string{"premio", "salón", "salon", "residencia", "beca", "convocatoria", "open call"}
	}
	if len(r.GenericTitles) == 0 {
		r.GenericTitles = []string{"convocatoria", "convocatorias", "home", "inicio", "noticias"}
	}
	if len(r.ConnectorWords) == 0 {
		r.ConnectorWords = []string{"de", "del", "la", "las", "el", "los", "y", "en", "a", "al", "para", "por", "con"}
	}
	if len(r.FreeFeePhrases) == 0 {
		r.FreeFeePhrases = defaultFreeFeePhrases
	}
	g := &r.Gazetteer
	if len(g.Domestic) == 0 {
		g.Domestic = []string{
			"argentina", "buenos aires", "caba", "ciudad autonoma de buenos aires", "cordoba", "rosario",
			"mendoza", "la plata", "mar del plata", "tucuman", "jujuy", "neuquen", "santa fe",
			"bahia blanca", "bariloche", "patagonia",
			// Common words on their own ("corrientes", "misiones", "salta"), so only the qualified forms count.
			"provincia de salta", "ciudad de salta", "provincia de corrientes", "ciudad de corrientes",
			"provincia de misiones", "provincia del chaco", "chaco argentino",
		}
	}
	if len(g.Countries) == 0 {
		g.Countries = []CountryEntry{
			{Name: "Chile", Aliases: []string{"chile", "santiago de chile"}},
			{Name: "Uruguay", Aliases: []string{"uruguay", "montevideo"}},
			{Name: "Mexico", Aliases: []string{"mexico", "ciudad de mexico", "cdmx"}},
			{Name: "Spain", Aliases: []string{"espana", "spain", "madrid", "barcelona"}},
			{Name: "Colombia", Aliases: []string{"colombia", "bogota", "medellin"}},
			{Name: "Peru", Aliases: []string{"peru", "lima"}},
			{Name: "Brazil", Aliases: []string{"brasil", "brazil", "sao paulo"}},
			{Name: "United States", Aliases: []string{"usa", "estados unidos", "eeuu", "ee.uu.", "new york", "nueva york"}},
			{Name: "France", Aliases: []string{"francia", "france", "paris"}},
			{Name: "Germany", Aliases: []string{"alemania", "germany", "berlin"}},
			{Name: "Italy", Aliases: []string{"italia", "italy", "roma"}},
			{Name: "United Kingdom", Aliases: []string{"reino unido", "united kingdom", "londres", "london"}},
		}
	}
	if len(g.InternationalKeywords) == 0 {
		g.InternationalKeywords = []string{"internacional", "international"}
	}
	if g.InternationalLabel == "" {
		g.InternationalLabel = "International"
	}
	r.Difficulty = r.Difficulty.withDefaults()
	if len(r.Tips) == 0 {
		r.Tips = []TipRule{
			{Keywords: []string{"site-specific", "arquitect", "edificio", "mural"}, Tip: "Obra site-specific o pintura expandida con integración arquitectónica."},
			{Keywords: []string{"pintur", "acrílico", "óleo", "temple"}, Tip: "Serie pictórica (6–10 obras) con statement curado."},
			{Keywords: []string{"fotograf", "lens", "cámara"}, Tip: "Ensayo fotográfico con eje conceptual y edición cuidada."},
			{Keywords: []string{"digital", "video", "new media", "web"}, Tip: "Obra digital / videoarte con documentación técnica clara."},
			{Keywords: []string{"instalación", "instalacion", "escultura", "3d"}, Tip: "Instalación con plan de montaje y mantenimiento detallado."},
		}
	}
	if r.DefaultTip == "" {
		r.DefaultTip = "Alineá la propuesta al texto curatorial; enfatizá proceso + documentación."
	}
	return r
}
