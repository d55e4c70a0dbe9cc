package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"full base", "https://img.example.com", "cooking-images/p1/a.jpg", "https://img.example.com/cooking-images/p1/a.jpg"},
		{"trailing slash base", "https://img.example.com/", "cooking-images/p1/a.jpg", "https://img.example.com/cooking-images/p1/a.jpg"},
		{"leading slash key", "https://img.example.com", "/cooking-images/p1/a.jpg", "https://img.example.com/cooking-images/p1/a.jpg"},
		{"scheme defaulted", "img.example.com", "a.jpg", "https://img.example.com/a.jpg"},
		{"http kept", "http://localhost:9000/bucket", "a.jpg", "http://localhost:9000/bucket/a.jpg"},
		{"empty base", "", "cooking-images/p1/a.jpg", "cooking-images/p1/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPublicURL(tt.base, tt.key))
		})
	}
}

func TestKeyFromPublicURL(t *testing.T) {
	store := &R2Store{publicURL: "https://img.example.com"}

	key, ok := store.KeyFromPublicURL("https://img.example.com/cooking-images/p1/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "cooking-images/p1/a.jpg", key)
}

func TestKeyFromPublicURL_ForeignHost(t *testing.T) {
	store := &R2Store{publicURL: "https://img.example.com"}

	_, ok := store.KeyFromPublicURL("https://cdn.elsewhere.net/cooking-images/p1/a.jpg")
	assert.False(t, ok)
}

func TestKeyFromPublicURL_NoBaseConfigured(t *testing.T) {
	store := &R2Store{}

	_, ok := store.KeyFromPublicURL("https://img.example.com/a.jpg")
	assert.False(t, ok)
}

func TestKeyFromPublicURL_BareBase(t *testing.T) {
	store := &R2Store{publicURL: "https://img.example.com"}

	_, ok := store.KeyFromPublicURL("https://img.example.com/")
	assert.False(t, ok)
}

func TestPublicURL(t *testing.T) {
	store := &R2Store{publicURL: "img.example.com"}

	assert.Equal(t, "https://img.example.com/cooking-images/p1/a.jpg",
		store.PublicURL("cooking-images/p1/a.jpg"))
}
