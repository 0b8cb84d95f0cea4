package aravis

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureTypeOf(t *testing.T) {
	cases := []struct {
		typeName string
		hasValue bool
		want     FeatureType
	}{
		{"ArvGcInteger", true, FeatureInteger},
		{"ArvGcIntReg", true, FeatureInteger},
		{"ArvGcIntSwissKnife", true, FeatureInteger},
		{"ArvGcFloatNode", true, FeatureFloat},
		{"ArvGcSwissKnife", true, FeatureFloat},
		{"ArvGcConverter", true, FeatureFloat},
		{"ArvGcBoolean", true, FeatureBoolean},
		{"ArvGcEnumeration", true, FeatureEnumeration},
		{"ArvGcEnumEntry", true, FeatureString},
		{"ArvGcCommand", false, FeatureCommand},
		{"ArvGcStringNode", true, FeatureString},
		{"ArvGcCategory", false, FeatureCategory},
		{"ArvGcRegisterNode", false, FeatureRegister},
		{"ArvGcPort", true, FeatureString},
		{"ArvGcPort", false, FeatureCommand},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, featureTypeOf(c.typeName, c.hasValue), c.typeName)
	}
}

func gList(names ...string) *gSList {
	var head *gSList
	for i := len(names) - 1; i >= 0; i-- {
		head = &gSList{data: cbytes(names[i]), next: head}
	}
	return head
}

type fakeNode struct {
	typeName string
	value    string
	children []string
	access   int32
}

// installTree fakes a GenICam document holding nodes.
func installTree(t *testing.T, nodes map[string]*fakeNode) *Device {
	t.Helper()
	installFakes(t)

	ptrs := map[uintptr]*fakeNode{}
	byName := map[string]uintptr{}
	next := uintptr(0x9000)
	for name, n := range nodes {
		next += 0x10
		ptrs[next] = n
		byName[name] = next
	}
	lists := map[uintptr]*gSList{}

	swap(t, &arv_device_get_genicam, func(uintptr) uintptr { return 0x8000 })
	swap(t, &arv_gc_get_node, func(gc uintptr, name string) uintptr { return byName[name] })
	swap(t, &arv_gc_category_get_features, func(node uintptr) unsafe.Pointer {
		if _, ok := lists[node]; !ok {
			lists[node] = gList(ptrs[node].children...)
		}
		return unsafe.Pointer(lists[node])
	})
	swap(t, &g_type_name_from_instance, func(node uintptr) string { return ptrs[node].typeName })
	swap(t, &arv_gc_feature_node_get_display_name, func(uintptr) string { return "" })
	swap(t, &arv_gc_feature_node_get_description, func(uintptr) string { return "description" })
	swap(t, &arv_gc_feature_node_get_tooltip, func(uintptr) string { return "" })
	swap(t, &arv_gc_feature_node_get_actual_access_mode, func(node uintptr) int32 { return ptrs[node].access })
	swap(t, &arv_gc_feature_node_get_visibility, func(uintptr) int32 { return 3 })
	yes := func(uintptr, **gError) bool { return true }
	swap(t, &arv_gc_feature_node_is_available, yes)
	swap(t, &arv_gc_feature_node_is_implemented, yes)
	swap(t, &arv_gc_feature_node_is_locked, func(uintptr, **gError) bool { return false })
	swap(t, &arv_gc_feature_node_get_value_as_string, func(node uintptr, gerr **gError) string {
		n := ptrs[node]
		if n.value == "" {
			*gerr = newGError(2, "no value")
		}
		return n.value
	})

	swap(t, &arv_device_get_integer_feature_bounds, func(dev uintptr, feature string, min, max *int64, gerr **gError) {
		*min, *max = 16, 4096
	})
	swap(t, &arv_device_get_integer_feature_increment, func(dev uintptr, feature string, gerr **gError) int64 { return 16 })
	swap(t, &arv_device_get_float_feature_bounds, func(dev uintptr, feature string, min, max *float64, gerr **gError) {
		*min, *max = 0, 24
	})
	swap(t, &arv_device_get_float_feature_increment, nil)
	swap(t, &arv_device_dup_available_enumeration_feature_values_as_strings,
		func(dev uintptr, feature string, n *uint32, gerr **gError) unsafe.Pointer {
			arr := []*byte{cbytes("Mono8"), cbytes("Mono16")}
			*n = uint32(len(arr))
			return unsafe.Pointer(&arr[0])
		})
	swap(t, &arv_device_dup_available_enumeration_feature_values_as_display_names, nil)

	cam, err := NewCamera("")
	require.NoError(t, err)
	t.Cleanup(func() { cam.Close() })
	dev, err := cam.Device()
	require.NoError(t, err)
	return dev
}

func testTree() map[string]*fakeNode {
	return map[string]*fakeNode{
		"Root":               {typeName: "ArvGcCategory", children: []string{"ImageFormatControl", "AnalogControl", "Broken"}},
		"ImageFormatControl": {typeName: "ArvGcCategory", children: []string{"Width", "PixelFormat", "ImageFormatControl"}},
		"AnalogControl":      {typeName: "ArvGcCategory", children: []string{"Gain", "AcquisitionStart"}},
		"Width":              {typeName: "ArvGcIntReg", value: "640", access: 2},
		"PixelFormat":        {typeName: "ArvGcEnumeration", value: "Mono8", access: 2},
		"Gain":               {typeName: "ArvGcFloatReg", value: "1.5", access: 0},
		"AcquisitionStart":   {typeName: "ArvGcCommand", access: 1},
	}
}

func TestCategoryFeatures(t *testing.T) {
	swap(t, &arv_gc_category_get_features, func(uintptr) unsafe.Pointer {
		return unsafe.Pointer(gList("Width", "", "Height"))
	})
	assert.Equal(t, []string{"Width", "Height"}, categoryFeatures(1))

	swap(t, &arv_gc_category_get_features, func(uintptr) unsafe.Pointer { return nil })
	assert.Empty(t, categoryFeatures(1))
}

func TestFeatureDetails(t *testing.T) {
	dev := installTree(t, testTree())

	width, err := dev.FeatureDetails("Width")
	require.NoError(t, err)
	assert.Equal(t, FeatureInteger, width.Type)
	assert.Equal(t, "Width", width.DisplayName)
	assert.Equal(t, AccessReadWrite, width.Access)
	assert.Equal(t, VisibilityBeginner, width.Visibility)
	require.NotNil(t, width.Value)
	assert.Equal(t, "640", *width.Value)
	require.NotNil(t, width.IntMin)
	assert.Equal(t, int64(16), *width.IntMin)
	assert.Equal(t, int64(4096), *width.IntMax)
	assert.Equal(t, int64(16), *width.IntInc)
	assert.Equal(t, "[RW] Integer      Width                          = 640", width.String())

	gain, err := dev.FeatureDetails("Gain")
	require.NoError(t, err)
	assert.Equal(t, FeatureFloat, gain.Type)
	assert.Equal(t, AccessReadOnly, gain.Access)
	assert.Equal(t, 24.0, *gain.FloatMax)
	assert.Nil(t, gain.FloatInc)

	pf, err := dev.FeatureDetails("PixelFormat")
	require.NoError(t, err)
	assert.Equal(t, FeatureEnumeration, pf.Type)
	assert.Equal(t, []string{"Mono8", "Mono16"}, pf.Choices)
	assert.Nil(t, pf.ChoiceNames)

	cmd, err := dev.FeatureDetails("AcquisitionStart")
	require.NoError(t, err)
	assert.Nil(t, cmd.Value)
	assert.Equal(t, FeatureCommand, cmd.Type)

	_, err = dev.FeatureDetails("Nope")
	var aerr *Error
	assert.True(t, errors.As(err, &aerr))
}

func TestWalk(t *testing.T) {
	dev := installTree(t, testTree())

	type visit struct {
		name  string
		depth int
	}
	var visits []visit
	err := dev.Walk("", func(f Feature, depth int) error {
		visits = append(visits, visit{f.Name, depth})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []visit{
		{"ImageFormatControl", 0},
		{"Width", 1},
		{"PixelFormat", 1},
		{"ImageFormatControl", 1},
		{"AnalogControl", 0},
		{"Gain", 1},
		{"AcquisitionStart", 1},
	}, visits)

	features, err := dev.Features("AnalogControl")
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "Gain", features[0].Name)

	stop := errors.New("stop")
	calls := 0
	err = dev.Walk(RootCategory, func(Feature, int) error {
		calls++
		return stop
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, calls)

	err = dev.Walk("Missing", func(Feature, int) error { return nil })
	assert.Error(t, err)
}
