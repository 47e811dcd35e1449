package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderID
		wantErr bool
	}{
		{input: "salesforce", want: ProviderSalesforce},
		{input: "google", want: ProviderGoogle},
		{input: "outlook", want: ProviderOutlook},
		{input: "hubspot", want: ProviderHubSpot},
		{input: " HubSpot ", want: ProviderHubSpot},
		{input: "GOOGLE", want: ProviderGoogle},
		{input: "dropbox", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProviderID(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderCredential_Configured(t *testing.T) {
	assert.False(t, ProviderCredential{}.Configured())
	assert.False(t, ProviderCredential{ClientID: "abc"}.Configured())
	assert.True(t, ProviderCredential{ClientID: "abc", ClientSecret: "s"}.Configured())
}
