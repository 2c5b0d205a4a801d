package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionRequest_Validate(t *testing.T) {
	valid := CreateSessionRequest{SeedKeyword: "ocean"}
	require.NoError(t, valid.Validate())

	empty := CreateSessionRequest{}
	assert.Error(t, empty.Validate())

	tooLong := CreateSessionRequest{SeedKeyword: "this keyword is far far far too long to be a seed"}
	assert.Error(t, tooLong.Validate())
}

func TestRecordChoiceRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RecordChoiceRequest
		wantErr bool
	}{
		{"valid first scene", RecordChoiceRequest{SceneIndex: 1, ChoiceID: "c1"}, false},
		{"valid last scene", RecordChoiceRequest{SceneIndex: 4, ChoiceID: "c2"}, false},
		{"scene index zero", RecordChoiceRequest{SceneIndex: 0, ChoiceID: "c1"}, true},
		{"scene index too high", RecordChoiceRequest{SceneIndex: 5, ChoiceID: "c1"}, true},
		{"missing choice id", RecordChoiceRequest{SceneIndex: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAxisIDs_PreservesDeclarationOrder(t *testing.T) {
	axes := []Axis{
		{ID: "logic", Name: "Logic"},
		{ID: "empathy", Name: "Empathy"},
		{ID: "drive", Name: "Drive"},
	}
	assert.Equal(t, []string{"logic", "empathy", "drive"}, AxisIDs(axes))
}

func TestWeightVector_Clone(t *testing.T) {
	orig := WeightVector{"a": 0.5, "b": -0.3}
	clone := orig.Clone()
	clone["a"] = 1.0
	assert.Equal(t, 0.5, orig["a"])
	assert.Equal(t, -0.3, clone["b"])
}
