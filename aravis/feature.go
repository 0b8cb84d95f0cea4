package aravis

import (
	"fmt"
	"runtime"
	"strings"
)

// RootCategory is the top of every GenICam feature tree.
const RootCategory = "Root"

// Feature describes a GenICam feature node as the device currently reports
// it. Range and choice fields are only filled for the matching feature type.
type Feature struct {
	Name        string      `yaml:"name"`
	DisplayName string      `yaml:"display_name,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Tooltip     string      `yaml:"tooltip,omitempty"`
	Type        FeatureType `yaml:"type"`
	Access      AccessMode  `yaml:"access"`
	Visibility  Visibility  `yaml:"visibility"`
	Available   bool        `yaml:"available"`
	Implemented bool        `yaml:"implemented"`
	Locked      bool        `yaml:"locked"`
	Value       *string     `yaml:"value,omitempty"`

	IntMin   *int64   `yaml:"int_min,omitempty"`
	IntMax   *int64   `yaml:"int_max,omitempty"`
	IntInc   *int64   `yaml:"int_inc,omitempty"`
	FloatMin *float64 `yaml:"float_min,omitempty"`
	FloatMax *float64 `yaml:"float_max,omitempty"`
	FloatInc *float64 `yaml:"float_inc,omitempty"`

	Choices     []string `yaml:"choices,omitempty"`
	ChoiceNames []string `yaml:"choice_names,omitempty"`
}

func (f Feature) String() string {
	value := "<n/a>"
	if f.Value != nil {
		value = *f.Value
	}
	name := f.DisplayName
	if name == "" {
		name = f.Name
	}
	return fmt.Sprintf("[%s] %-12s %-30s = %s", f.Access.Short(), f.Type, name, value)
}

// MarshalYAML lets the enum fields print by name.
func (t FeatureType) MarshalYAML() (interface{}, error) { return t.String(), nil }

// MarshalYAML lets the enum fields print by name.
func (a AccessMode) MarshalYAML() (interface{}, error) { return a.String(), nil }

// MarshalYAML lets the enum fields print by name.
func (v Visibility) MarshalYAML() (interface{}, error) { return v.String(), nil }

// featureTypeOf classifies a node by its GObject type name, e.g.
// "ArvGcIntReg" or "ArvGcEnumeration". Integer checks come first since
// "ArvGcIntSwissKnife" also contains "SwissKnife".
func featureTypeOf(typeName string, hasValue bool) FeatureType {
	has := func(s string) bool { return strings.Contains(typeName, s) }
	switch {
	case has("Integer"), has("IntReg"), has("IntSwissKnife"):
		return FeatureInteger
	case has("Float"), has("SwissKnife"), has("Converter"):
		return FeatureFloat
	case has("Boolean"):
		return FeatureBoolean
	case has("Enumeration") && !has("Entry"):
		return FeatureEnumeration
	case has("Command"):
		return FeatureCommand
	case has("String"):
		return FeatureString
	case has("Category"):
		return FeatureCategory
	case has("Register"):
		return FeatureRegister
	}
	if hasValue {
		return FeatureString
	}
	return FeatureCommand
}

// node returns the GenICam node for a feature, or 0 if there is none.
func (d *Device) node(name string) (uintptr, error) {
	ptr, err := d.get()
	if err != nil {
		return 0, err
	}
	gc := arv_device_get_genicam(ptr)
	if gc == 0 {
		return 0, nil
	}
	return arv_gc_get_node(gc, name), nil
}

// nodeBool evaluates a node predicate and drops its error, reporting false.
func nodeBool(fn func(node uintptr, gerr **gError) bool, node uintptr) bool {
	var gerr *gError
	v := fn(node, &gerr)
	if takeError("", gerr) != nil {
		return false
	}
	return v
}

// FeatureDetails reads the metadata, current value and constraints of a
// feature. Constraints that cannot be read are left unset.
func (d *Device) FeatureDetails(name string) (Feature, error) {
	f := Feature{Name: name}

	node, err := d.node(name)
	if err != nil {
		return f, err
	}
	if node == 0 {
		return f, &Error{Op: "FeatureDetails", Message: fmt.Sprintf("feature %q not found", name)}
	}
	defer runtime.KeepAlive(d.owner)

	f.DisplayName = arv_gc_feature_node_get_display_name(node)
	if f.DisplayName == "" {
		f.DisplayName = name
	}
	f.Description = arv_gc_feature_node_get_description(node)
	f.Tooltip = arv_gc_feature_node_get_tooltip(node)
	f.Access = accessModeFromNative(arv_gc_feature_node_get_actual_access_mode(node))
	f.Visibility = visibilityFromNative(arv_gc_feature_node_get_visibility(node))
	f.Available = nodeBool(arv_gc_feature_node_is_available, node)
	f.Implemented = nodeBool(arv_gc_feature_node_is_implemented, node)
	f.Locked = nodeBool(arv_gc_feature_node_is_locked, node)

	if f.Available {
		var gerr *gError
		v := arv_gc_feature_node_get_value_as_string(node, &gerr)
		if takeError("", gerr) == nil {
			f.Value = &v
		}
	}

	f.Type = featureTypeOf(g_type_name_from_instance(node), f.Value != nil)
	switch f.Type {
	case FeatureInteger:
		if min, max, err := d.IntegerBounds(name); err == nil {
			f.IntMin, f.IntMax = &min, &max
		}
		if inc, err := d.IntegerIncrement(name); err == nil {
			f.IntInc = &inc
		}
	case FeatureFloat:
		if min, max, err := d.FloatBounds(name); err == nil {
			f.FloatMin, f.FloatMax = &min, &max
		}
		if inc, err := d.FloatIncrement(name); err == nil {
			f.FloatInc = &inc
		}
	case FeatureEnumeration:
		if choices, err := d.EnumerationValues(name); err == nil {
			f.Choices = choices
		}
		if names, err := d.EnumerationDisplayNames(name); err == nil {
			f.ChoiceNames = names
		}
	}
	return f, nil
}

// WalkFunc is called for every feature reached by Walk. depth is 0 for the
// children of the root category.
type WalkFunc func(f Feature, depth int) error

// Walk visits the feature tree below the category root depth first,
// descending into sub categories after reporting them. It stops at the
// first error returned by fn.
func (d *Device) Walk(root string, fn WalkFunc) error {
	if root == "" {
		root = RootCategory
	}
	return d.walk(root, 0, fn, map[string]bool{})
}

func (d *Device) walk(category string, depth int, fn WalkFunc, seen map[string]bool) error {
	if seen[category] {
		return nil
	}
	seen[category] = true

	node, err := d.node(category)
	if err != nil {
		return err
	}
	if node == 0 {
		return &Error{Op: "Walk", Message: fmt.Sprintf("category %q not found", category)}
	}

	for _, name := range categoryFeatures(node) {
		f, err := d.FeatureDetails(name)
		if err != nil {
			if _, closed := d.get(); closed != nil {
				return closed
			}
			logger().Debug("skipping feature", "feature", name, "error", err)
			continue
		}
		if err := fn(f, depth); err != nil {
			return err
		}
		if f.Type == FeatureCategory {
			if err := d.walk(name, depth+1, fn, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// categoryFeatures reads the names listed by a category node. The list and
// its strings belong to the node.
func categoryFeatures(node uintptr) []string {
	var names []string
	for l := (*gSList)(arv_gc_category_get_features(node)); l != nil; l = l.next {
		if name := goString(l.data); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Features collects the features below root, categories included.
func (d *Device) Features(root string) ([]Feature, error) {
	var out []Feature
	err := d.Walk(root, func(f Feature, _ int) error {
		out = append(out, f)
		return nil
	})
	return out, err
}
