package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/windowsadmins/wasetupreport/pkg/phase"
)

func TestExtractXMLFieldLookup(t *testing.T) {
	content := `<?xml version="1.0"?>
<w:WaSetup xmlns:w="urn:wasetup">
  <w:Phases>
    <w:SPECIALIZE>
      <w:starttime>2024-01-01T00:00:00Z</w:starttime>
      <ENDTIME> 2024-01-01T00:00:03Z </ENDTIME>
    </w:SPECIALIZE>
    <SetupCl StartTime="2024-01-01T00:00:00Z" endtime="2024-01-01T00:00:01Z">
      <StartTime>   </StartTime>
      <TickCount></TickCount>
    </SetupCl>
    <windeploy tickcount="750"/>
  </w:Phases>
</w:WaSetup>`

	entries, err := ExtractXML([]byte(content))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, phase.Specialize, entries[0].Phase)
	assert.Equal(t, "2024-01-01T00:00:00Z", *entries[0].StartTime)
	assert.Equal(t, "2024-01-01T00:00:03Z", *entries[0].EndTime)
	assert.Nil(t, entries[0].TickCount)

	// Empty child text falls back to the attribute.
	assert.Equal(t, phase.SetupCl, entries[1].Phase)
	assert.Equal(t, "2024-01-01T00:00:00Z", *entries[1].StartTime)
	assert.Equal(t, "2024-01-01T00:00:01Z", *entries[1].EndTime)
	assert.Nil(t, entries[1].TickCount)

	assert.Equal(t, phase.WinDeploy, entries[2].Phase)
	assert.Equal(t, "750", entries[2].TickCount)
	assert.Nil(t, entries[2].StartTime)
}

func TestExtractXMLLastOccurrenceWinsFirstSeenOrder(t *testing.T) {
	content := `<Root>
  <Setup TickCount="1"/>
  <oobeSystem TickCount="5"/>
  <Nested><setup TickCount="2"/></Nested>
</Root>`

	entries, err := ExtractXML([]byte(content))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, phase.Setup, entries[0].Phase)
	assert.Equal(t, "2", entries[0].TickCount)
	assert.Equal(t, phase.OobeSystem, entries[1].Phase)
}

func TestExtractXMLRootCanBeAPhase(t *testing.T) {
	entries, err := ExtractXML([]byte(`<Provisioning TickCount="12"/>`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, phase.Provisioning, entries[0].Phase)
}

func TestExtractXMLOnlyDirectChildren(t *testing.T) {
	content := `<Setup><Inner><StartTime>2024-01-01T00:00:00Z</StartTime></Inner></Setup>`
	entries, err := ExtractXML([]byte(content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].StartTime)
}

func TestExtractXMLErrors(t *testing.T) {
	_, err := ExtractXML([]byte("not xml"))
	assert.Error(t, err)

	_, err = ExtractXML([]byte("<a><b></a>"))
	assert.Error(t, err)
}

func TestExtractJSONErrors(t *testing.T) {
	_, err := ExtractJSON([]byte("<WaSetup/>"))
	assert.ErrorIs(t, err, ErrNoTelemetryBlock)

	_, err = ExtractJSON([]byte(`<TelemetryData>{"specialize": }</TelemetryData>`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTelemetryBlock)
}

func TestExtractJSONCaseInsensitiveFields(t *testing.T) {
	entries, err := ExtractJSON([]byte(`<TelemetryData>{"PaSetup": {"starttime": "a", "ENDTIME": "b", "tickCount": 3}}</TelemetryData>`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, phase.PaSetup, entries[0].Phase)
	assert.Equal(t, "a", *entries[0].StartTime)
	assert.Equal(t, "b", *entries[0].EndTime)
	assert.NotNil(t, entries[0].TickCount)
}

func TestExtractJSONKeepsDuplicateSpellings(t *testing.T) {
	entries, err := ExtractJSON([]byte(`<TelemetryData>{"oobeSystem": {"TickCount": "1"}, "oobesystem": {"TickCount": "2"}}</TelemetryData>`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, phase.OobeSystem, entries[0].Phase)
	assert.Equal(t, phase.OobeSystem, entries[1].Phase)
}
