package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/wherewas/pkg/timeline"
)

type fakeLocator struct {
	calls [][5]int
	loc   timeline.Location
}

func (f *fakeLocator) LocationAt(year, month, day, hour, minute int) timeline.Location {
	f.calls = append(f.calls, [5]int{year, month, day, hour, minute})
	return f.loc
}

func TestLocationTool_Metadata(t *testing.T) {
	tool := NewLocationTool(&fakeLocator{})

	assert.Equal(t, "get_location_at_time", tool.Name())
	assert.NotEmpty(t, tool.Description())

	schema := tool.Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"year", "month", "day", "hour", "minute"}, schema["required"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, props, 5)

	// The schema must survive a JSON round trip for providers that send it verbatim.
	_, err := json.Marshal(schema)
	require.NoError(t, err)
}

func TestLocationTool_Execute(t *testing.T) {
	loc := &fakeLocator{loc: timeline.At(37.7749, -122.4194)}
	tool := NewLocationTool(loc)

	result, meta, err := tool.Execute(context.Background(),
		[]byte(`{"year": 2021, "month": 1, "day": 15, "hour": 15, "minute": 45}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"latitude": 37.7749, "longitude": -122.4194}`, result)
	assert.Equal(t, true, meta["found"])
	assert.Equal(t, "2021-01-15T15:45:00Z", meta["time"])
	assert.Equal(t, [][5]int{{2021, 1, 15, 15, 45}}, loc.calls)
}

func TestLocationTool_ExecuteNotFound(t *testing.T) {
	tool := NewLocationTool(&fakeLocator{loc: timeline.NotFound()})

	result, meta, err := tool.Execute(context.Background(),
		[]byte(`{"year": 2020, "month": 1, "day": 1, "hour": 12, "minute": 0}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"latitude": null, "longitude": null}`, result)
	assert.Equal(t, false, meta["found"])
}

func TestLocationTool_ExecuteCoercesIntegers(t *testing.T) {
	loc := &fakeLocator{}
	tool := NewLocationTool(loc)

	_, _, err := tool.Execute(context.Background(),
		[]byte(`{"year": "2021", "month": 1.0, "day": " 15 ", "hour": 15, "minute": 45}`))
	require.NoError(t, err)
	assert.Equal(t, [][5]int{{2021, 1, 15, 15, 45}}, loc.calls)
}

func TestLocationTool_ExecuteInvalid(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"not json", `{"year": `},
		{"array", `[2021, 1, 15, 15, 45]`},
		{"missing field", `{"year": 2021, "month": 1, "day": 15, "hour": 15}`},
		{"null field", `{"year": 2021, "month": 1, "day": 15, "hour": 15, "minute": null}`},
		{"fraction", `{"year": 2021, "month": 1, "day": 15, "hour": 15.5, "minute": 0}`},
		{"word", `{"year": 2021, "month": "jan", "day": 15, "hour": 15, "minute": 0}`},
		{"boolean", `{"year": 2021, "month": 1, "day": true, "hour": 15, "minute": 0}`},
		{"month range", `{"year": 2021, "month": 13, "day": 15, "hour": 15, "minute": 0}`},
		{"minute range", `{"year": 2021, "month": 1, "day": 15, "hour": 15, "minute": 60}`},
		{"not a date", `{"year": 2021, "month": 2, "day": 30, "hour": 15, "minute": 0}`},
		{"extra field", `{"year": 2021, "month": 1, "day": 15, "hour": 15, "minute": 0, "tz": "PST"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := &fakeLocator{}
			_, _, err := NewLocationTool(loc).Execute(context.Background(), []byte(tt.args))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArguments)
			assert.Empty(t, loc.calls, "locator must not be called with invalid arguments")
		})
	}
}

func TestLocationTool_ExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewLocationTool(&fakeLocator{}).Execute(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocationTool_StoreImplementsLocator(t *testing.T) {
	var _ Locator = (*timeline.Store)(nil)
}
