package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"youareloved-web/internal/model"
)

func TestMergePartners(t *testing.T) {
	p1 := model.Partner{Name: "One", Telegram: "one"}
	p2 := model.Partner{Name: "Two", Telegram: "two"}
	p3 := model.Partner{Name: "Three", Telegram: "three"}

	t.Run("empty fetch keeps local", func(t *testing.T) {
		assert.Equal(t, []model.Partner{p1, p2}, MergePartners([]model.Partner{p1, p2}, nil))
		assert.Equal(t, []model.Partner{p1}, MergePartners([]model.Partner{p1}, []model.Partner{}))
	})

	t.Run("fetch replaces and keeps local-only", func(t *testing.T) {
		got := MergePartners([]model.Partner{p1, p3}, []model.Partner{p2, {Name: "One (server)", Telegram: "@ONE"}})
		assert.Equal(t, []model.Partner{p2, {Name: "One (server)", Telegram: "@ONE"}, p3}, got)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, MergePartners(nil, nil))
	})
}
