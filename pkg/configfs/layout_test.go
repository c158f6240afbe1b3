package configfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: DefaultRoot}

	assert.Equal(t, "vkms/dev1", l.DevicePath("dev1"))
	assert.Equal(t, "vkms/dev1/enabled", l.DeviceAttrPath("dev1", AttrEnabled))
	assert.Equal(t, "vkms/dev1/planes", l.CollectionPath("dev1", KindPlane))
	assert.Equal(t, "vkms/dev1/crtcs/c0", l.EntityPath("dev1", KindCrtc, "c0"))
	assert.Equal(t, "vkms/dev1/planes/p0/type", l.AttrPath("dev1", KindPlane, "p0", AttrType))
	assert.Equal(t, "vkms/dev1/connectors/hdmi/possible_encoders", l.LinkDirPath("dev1", KindConnector, "hdmi", LinkPossibleEncoders))
	assert.Equal(t, "vkms/dev1/planes/p0/possible_crtcs/c0", l.LinkPath("dev1", KindPlane, "p0", LinkPossibleCrtcs, "c0"))
	assert.Equal(t, "/vkms/dev1/crtcs/c0", l.LinkTarget("dev1", KindCrtc, "c0"))
	assert.Equal(t, "/sys/kernel/config/vkms/dev1", l.Abs(l.DevicePath("dev1")))
	assert.Equal(t, "/vkms/dev1", Layout{}.Abs("vkms/dev1"))
}

func TestKindMetadata(t *testing.T) {
	tests := []struct {
		kind     Kind
		singular string
		attr     string
		links    []LinkDir
	}{
		{KindPlane, "plane", AttrType, []LinkDir{{LinkPossibleCrtcs, KindCrtc}}},
		{KindCrtc, "crtc", AttrWriteback, nil},
		{KindEncoder, "encoder", "", []LinkDir{{LinkPossibleCrtcs, KindCrtc}}},
		{KindConnector, "connector", AttrStatus, []LinkDir{{LinkPossibleEncoders, KindEncoder}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.singular, tt.kind.Singular())
			assert.Equal(t, tt.attr, tt.kind.Attr())
			assert.Equal(t, tt.links, tt.kind.LinkDirs())

			k, ok := ParseKind(string(tt.kind))
			assert.True(t, ok)
			assert.Equal(t, tt.kind, k)
		})
	}

	_, ok := ParseKind("widgets")
	assert.False(t, ok)
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    EntityRef
		wantErr bool
	}{
		{"tree path", "vkms/dev1/crtcs/c0", EntityRef{"dev1", KindCrtc, "c0"}, false},
		{"absolute target", "/vkms/dev1/encoders/e0", EntityRef{"dev1", KindEncoder, "e0"}, false},
		{"host path", "/sys/kernel/config/vkms/dev 2/crtcs/c.1", EntityRef{"dev 2", KindCrtc, "c.1"}, false},
		{"configfs relative target", "../../../../crtcs/c0", EntityRef{"", KindCrtc, "c0"}, false},
		{"trailing newline", "../../../../encoders/e0\n", EntityRef{"", KindEncoder, "e0"}, false},
		{"unknown collection", "vkms/dev1/widgets/w0", EntityRef{}, true},
		{"device root", "vkms/dev1", EntityRef{}, true},
		{"single component", "c0", EntityRef{}, true},
		{"empty", "", EntityRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntity(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntityInvertsLayout(t *testing.T) {
	l := Layout{Root: DefaultRoot}
	for _, kind := range Kinds {
		for _, name := range []string{"a", "x-1", "with space", "v.2"} {
			ref, err := ParseEntity(l.EntityPath("dev1", kind, name))
			require.NoError(t, err)
			assert.Equal(t, EntityRef{"dev1", kind, name}, ref)

			ref, err = ParseEntity(l.LinkTarget("dev1", kind, name))
			require.NoError(t, err)
			assert.Equal(t, EntityRef{"dev1", kind, name}, ref)
		}
	}
}
