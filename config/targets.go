package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
)

// DefaultTable is queried when a project does not name a table.
const DefaultTable = "healthcheck"

// ErrProjectsMissing is wrapped by a ConfigurationError when no project list
// is configured at all.
var ErrProjectsMissing = errors.New(EnvProjectsJSON + " is empty or missing")

var tableName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// descriptorFields lists the descriptor keys in declaration order; the first
// failing one is reported.
var descriptorFields = []string{"name", "url", "anon_key", "table"}

// ConfigurationError reports a missing or unusable project list. Index is -1
// when the problem is not tied to a single project.
type ConfigurationError struct {
	Index int
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("configuration error: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("configuration error: project %d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("configuration error: project %d: %s: %v", e.Index, e.Field, e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ProjectTarget is one database-backed project to keep active.
type ProjectTarget struct {
	Name       string
	BaseURL    string
	Credential string
	Table      string
}

type projectDescriptor struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	AnonKey string `json:"anon_key"`
	Table   string `json:"table"`
}

func (d projectDescriptor) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.URL, validation.Required, validation.By(validateProjectURL)),
		validation.Field(&d.AnonKey, validation.Required),
		validation.Field(&d.Table, validation.Match(tableName)),
	)
}

// ParseTargets decodes a JSON array of {name, url, anon_key, table?} objects.
// Targets keep their declaration order. An empty array is valid.
func ParseTargets(raw string) ([]ProjectTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ConfigurationError{Index: -1, Err: ErrProjectsMissing}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &ConfigurationError{Index: -1, Err: errors.Wrap(err, "project list must be a JSON array")}
	}
	if items == nil {
		return nil, &ConfigurationError{Index: -1, Err: errors.New("project list must be a JSON array, got null")}
	}

	targets := make([]ProjectTarget, 0, len(items))
	seen := make(map[string]int, len(items))

	for i, item := range items {
		target, err := parseTarget(i, item)
		if err != nil {
			return nil, err
		}

		if first, dup := seen[target.Name]; dup {
			return nil, &ConfigurationError{
				Index: i,
				Field: "name",
				Err:   errors.Errorf("duplicate name %q, already used by project %d", target.Name, first),
			}
		}
		seen[target.Name] = i

		targets = append(targets, target)
	}

	return targets, nil
}

func parseTarget(index int, item json.RawMessage) (ProjectTarget, error) {
	var d projectDescriptor

	dec := json.NewDecoder(bytes.NewReader(item))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		cfgErr := &ConfigurationError{Index: index, Err: errors.Wrap(err, "invalid project object")}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			cfgErr.Field = typeErr.Field
		}
		return ProjectTarget{}, cfgErr
	}

	d.Name = strings.TrimSpace(d.Name)
	d.URL = strings.TrimSpace(d.URL)
	d.Table = strings.TrimSpace(d.Table)

	if err := d.Validate(); err != nil {
		return ProjectTarget{}, descriptorError(index, err)
	}

	table := d.Table
	if table == "" {
		table = DefaultTable
	}

	return ProjectTarget{
		Name:       d.Name,
		BaseURL:    strings.TrimRight(d.URL, "/"),
		Credential: d.AnonKey,
		Table:      table,
	}, nil
}

func descriptorError(index int, err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &ConfigurationError{Index: index, Err: err}
	}

	for _, field := range descriptorFields {
		if fieldErr, ok := fieldErrs[field]; ok {
			return &ConfigurationError{Index: index, Field: field, Err: fieldErr}
		}
	}

	return &ConfigurationError{Index: index, Err: err}
}

func validateProjectURL(value interface{}) error {
	projectURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(projectURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return validation.NewError("validation_invalid_url", "URL must not carry a query or fragment")
	}

	return nil
}
