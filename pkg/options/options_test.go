package options_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cabinetdb/cabinet/pkg/options"
	"github.com/cabinetdb/cabinet/pkg/store"
)

type upperSerializer struct{}

func (upperSerializer) Marshal(value any) ([]byte, error) { return json.Marshal(value) }
func (upperSerializer) Unmarshal(data []byte, target any) error {
	return json.Unmarshal(data, target)
}

func TestNewDefaultOptions(t *testing.T) {
	o := options.NewDefaultOptions()
	assert.True(t, o.IndexEnabled)
	assert.False(t, o.IntegrityWatch)
	assert.Nil(t, o.Logger)
	assert.Nil(t, o.Serializer)
	assert.Equal(t, 16, o.DiagnosticsCapacity)
}

func TestWithSerializerOverridesDefault(t *testing.T) {
	o := options.NewDefaultOptions()
	var custom store.Serializer = upperSerializer{}
	options.WithSerializer(custom)(&o)
	assert.Equal(t, custom, o.Serializer)
}

func TestWithSerializerIgnoresNil(t *testing.T) {
	o := options.NewDefaultOptions()
	o.Serializer = upperSerializer{}
	options.WithSerializer(nil)(&o)
	assert.NotNil(t, o.Serializer)
}

func TestWithDiagnosticsCapacityIgnoresNonPositive(t *testing.T) {
	o := options.NewDefaultOptions()
	options.WithDiagnosticsCapacity(0)(&o)
	assert.Equal(t, 16, o.DiagnosticsCapacity)
	options.WithDiagnosticsCapacity(4)(&o)
	assert.Equal(t, 4, o.DiagnosticsCapacity)
}

func TestWithRootDirIgnoresBlank(t *testing.T) {
	o := options.NewDefaultOptions()
	o.RootDir = "/already/set"
	options.WithRootDir("   ")(&o)
	assert.Equal(t, "/already/set", o.RootDir)
	options.WithRootDir("/new/root")(&o)
	assert.Equal(t, "/new/root", o.RootDir)
}
