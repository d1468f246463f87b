package menu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"3.49", 349, false},
		{"14.89", 1489, false},
		{"3.5", 350, false},
		{"3", 300, false},
		{"0.00", 0, false},
		{".99", 99, false},
		{"-1.25", -125, false},
		{" 6.68 ", 668, false},
		{"", 0, true},
		{"1.234", 0, true},
		{"1.", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "6.68", Money(668).String())
	assert.Equal(t, "0.00", Money(0).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
	assert.Equal(t, Money(1047), Money(349).Times(3))
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 668})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 6.68}`, string(data))

	var back struct {
		Total Money `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Money(668), back.Total)

	var quoted Money
	require.NoError(t, json.Unmarshal([]byte(`"3.19"`), &quoted))
	assert.Equal(t, Money(319), quoted)

	var exp Money
	require.NoError(t, json.Unmarshal([]byte(`1.489e1`), &exp))
	assert.Equal(t, Money(1489), exp)
}

func TestMoneyYAML(t *testing.T) {
	var v struct {
		Price Money `yaml:"price"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("price: 1.79\n"), &v))
	assert.Equal(t, Money(179), v.Price)

	assert.Error(t, yaml.Unmarshal([]byte("price: cheap\n"), &v))
}
