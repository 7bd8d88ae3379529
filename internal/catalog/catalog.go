// Package catalog resolves service method names to IAM actions and
// request shapes, from static per-service operation catalogs embedded at
// build time. Resolution is pure: no network, no guessing. A method
// missing from the catalog is an error, because a made-up action string
// would make a simulation meaningless.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"simclient/internal/domain"
)

//go:embed catalogs/*.yaml
var embeddedCatalogs embed.FS

// serviceFile is the YAML shape of one service catalog
type serviceFile struct {
	Service string `yaml:"service"`
	// Prefix overrides the IAM action prefix when it differs from the
	// service name (e.g. service "rds" with prefix "rds-db").
	Prefix     string                   `yaml:"prefix,omitempty"`
	Operations map[string]operationSpec `yaml:"operations"`
}

type operationSpec struct {
	// Action overrides the IAM operation name when it differs from the
	// catalog key; empty means the key is the action name.
	Action     string          `yaml:"action,omitempty"`
	Resource   string          `yaml:"resource,omitempty"`
	Parameters []parameterSpec `yaml:"parameters,omitempty"`
}

type parameterSpec struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Required   bool     `yaml:"required,omitempty"`
	MaxLength  int      `yaml:"max_length,omitempty"`
	Min        int      `yaml:"min,omitempty"`
	Enum       []string `yaml:"enum,omitempty"`
	SafeValues []string `yaml:"safe_values,omitempty"`
	ARNService  string   `yaml:"arn_service,omitempty"`
	ARNResource string   `yaml:"arn_resource,omitempty"`
}

// Catalog is the loaded operation catalog for one service
type Catalog struct {
	service    string
	prefix     string
	operations map[string]operationSpec
}

var (
	loadedMu sync.Mutex
	loaded   = make(map[string]*Catalog)
)

// Load returns the embedded catalog for a service, cached per process
func Load(service string) (*Catalog, error) {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	if c, ok := loaded[service]; ok {
		return c, nil
	}

	data, err := embeddedCatalogs.ReadFile("catalogs/" + service + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no operation catalog for service %q", service)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog for %q: %w", service, err)
	}
	loaded[service] = c
	return c, nil
}

// LoadFile loads a catalog from an external YAML file, overriding the
// embedded set for services not shipped with the binary.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var file serviceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if file.Service == "" {
		return nil, fmt.Errorf("catalog missing service name")
	}
	prefix := file.Prefix
	if prefix == "" {
		prefix = file.Service
	}
	return &Catalog{
		service:    file.Service,
		prefix:     prefix,
		operations: file.Operations,
	}, nil
}

// Service returns the catalog's service name
func (c *Catalog) Service() string {
	return c.service
}

// Operations returns the sorted list of catalog method names
func (c *Catalog) Operations() []string {
	names := make([]string, 0, len(c.operations))
	for name := range c.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a method name to its ActionDescriptor. Method names are
// accepted in the operation's own form ("CreateUser"), lowerCamel
// ("createUser"), or snake_case ("create_user").
func (c *Catalog) Resolve(method string) (domain.ActionDescriptor, error) {
	key := NormalizeMethod(method)
	op, ok := c.operations[key]
	if !ok {
		return domain.ActionDescriptor{}, &domain.UnknownOperationError{Service: c.service, Method: method}
	}

	actionName := op.Action
	if actionName == "" {
		actionName = key
	}
	resource := op.Resource
	if resource == "" {
		resource = "*"
	}

	descriptor := domain.ActionDescriptor{
		Service:          c.service,
		Operation:        key,
		Action:           c.prefix + ":" + actionName,
		ResourceTemplate: resource,
		Parameters:       make([]domain.ParameterSpec, 0, len(op.Parameters)),
	}
	for _, p := range op.Parameters {
		kind := domain.ParameterKind(p.Kind)
		if kind == "" {
			kind = domain.ParameterString
		}
		descriptor.Parameters = append(descriptor.Parameters, domain.ParameterSpec{
			Name:        p.Name,
			Kind:        kind,
			Required:    p.Required,
			MaxLength:   p.MaxLength,
			Min:         p.Min,
			Enum:        p.Enum,
			SafeValues:  p.SafeValues,
			ARNService:  p.ARNService,
			ARNResource: p.ARNResource,
		})
	}
	return descriptor, nil
}

// Resolve is the package-level form of the ActionResolver contract
func Resolve(service, method string) (domain.ActionDescriptor, error) {
	c, err := Load(service)
	if err != nil {
		return domain.ActionDescriptor{}, &domain.UnknownOperationError{Service: service, Method: method}
	}
	return c.Resolve(method)
}

// NormalizeMethod folds boto-style snake_case and lowerCamel method names
// into the catalog's CamelCase operation names.
func NormalizeMethod(method string) string {
	if strings.Contains(method, "_") {
		var b strings.Builder
		for _, part := range strings.Split(method, "_") {
			if part == "" {
				continue
			}
			b.WriteString(strings.ToUpper(part[:1]))
			b.WriteString(part[1:])
		}
		return b.String()
	}
	if method == "" {
		return method
	}
	return strings.ToUpper(method[:1]) + method[1:]
}
