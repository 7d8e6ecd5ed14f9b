// Package content loads the static copy of the site: services, gallery,
// testimonials and policy documents.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

type Service struct {
	Title      string   `yaml:"title"`
	Summary    string   `yaml:"summary"`
	Icon       string   `yaml:"icon"`
	Highlights []string `yaml:"highlights"`
}

type GalleryItem struct {
	Image   string `yaml:"image"`
	Title   string `yaml:"title"`
	Caption string `yaml:"caption"`
}

type Testimonial struct {
	Quote  string `yaml:"quote"`
	Author string `yaml:"author"`
}

// Section is one expandable part of a policy
type Section struct {
	Heading string   `yaml:"heading"`
	Body    []string `yaml:"body"`
}

type Policy struct {
	Name     string    `yaml:"-"`
	Title    string    `yaml:"title"`
	Updated  string    `yaml:"updated"`
	Intro    string    `yaml:"intro"`
	Sections []Section `yaml:"sections"`
}

type Site struct {
	Tagline      string            `yaml:"tagline"`
	Intro        string            `yaml:"intro"`
	ContactEmail string            `yaml:"contact_email"`
	Services     []Service         `yaml:"services"`
	Gallery      []GalleryItem     `yaml:"gallery"`
	Testimonials []Testimonial     `yaml:"testimonials"`
	Policies     map[string]Policy `yaml:"policies"`
}

// Load reads the content file at path, or the built-in content when path is empty
func Load(path string) (*Site, error) {
	data := defaultContent
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("[content Load] read %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("[content Parse] %w", err)
	}
	for name, p := range site.Policies {
		if p.Title == "" {
			return nil, fmt.Errorf("[content Parse] policy %q has no title", name)
		}
		p.Name = name
		site.Policies[name] = p
	}
	return &site, nil
}

// Policy returns the named policy, e.g. "privacy"
func (s *Site) Policy(name string) (Policy, bool) {
	p, ok := s.Policies[name]
	return p, ok
}

// PolicyNames lists the policies alphabetically for the footer
func (s *Site) PolicyNames() []string {
	names := make([]string, 0, len(s.Policies))
	for name := range s.Policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
