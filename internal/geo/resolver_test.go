package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResolver_MissingDatabase(t *testing.T) {
	r, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb")
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestCountryCode_NilResolver(t *testing.T) {
	var r *Resolver
	assert.Equal(t, "", r.CountryCode("8.8.8.8"))
	assert.NoError(t, r.Close())
}

func TestCountryCode_BadIP(t *testing.T) {
	r := &Resolver{}
	assert.Equal(t, "", r.CountryCode("not-an-ip"))
}
