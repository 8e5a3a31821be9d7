package inventory

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
)

// Entry is one server record as written in the inventory file.
type Entry struct {
	Host   string   `yaml:"host"`
	URL    string   `yaml:"url"`
	Port   flexInt  `yaml:"port"`
	Active flexBool `yaml:"active"`
}

type document struct {
	Servers []Entry `yaml:"servers"`
}

// Inventory is the parsed, validated fleet.
type Inventory struct {
	targets []*fleet.Target
}

// Load reads and validates the inventory file at path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes an inventory document from r.
func Parse(r io.Reader) (*Inventory, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("inventory is empty")
		}
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	if len(doc.Servers) == 0 {
		return nil, fmt.Errorf("servers: cannot be blank")
	}

	inv := &Inventory{targets: make([]*fleet.Target, 0, len(doc.Servers))}
	for i, entry := range doc.Servers {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
		u, _ := url.Parse(entry.URL)
		inv.targets = append(inv.targets, fleet.New(entry.Host, u, int(entry.Port), bool(entry.Active)))
	}

	return inv, nil
}

func (e Entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Host, validation.Required, is.Host),
		validation.Field(&e.URL, validation.Required, validation.By(validateServiceURL)),
		validation.Field(&e.Port, validation.Required, validation.Min(flexInt(1)), validation.Max(flexInt(65535))),
	)
}

// Targets returns every inventory entry in file order.
func (i *Inventory) Targets() []*fleet.Target {
	return i.targets
}

// Active returns the entries that take part in the sweep.
func (i *Inventory) Active() []*fleet.Target {
	var active []*fleet.Target
	for _, t := range i.targets {
		if t.Active() {
			active = append(active, t)
		}
	}
	return active
}

func validateServiceURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// flexBool accepts YAML booleans as well as quoted "true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: active must be a boolean", node.Line)
	}
	v, err := strconv.ParseBool(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: active must be a boolean, got %q", node.Line, node.Value)
	}
	*b = flexBool(v)
	return nil
}

// flexInt accepts YAML integers as well as quoted numbers.
type flexInt int

func (n *flexInt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: port must be a number", node.Line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: port must be a number, got %q", node.Line, node.Value)
	}
	*n = flexInt(v)
	return nil
}
