package clickhouse

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testdata/certs was generated with:
//
//	openssl genrsa -out ca.key 2048
//	openssl req -x509 -new -nodes -key ca.key -sha256 -days 3650 -out ca.crt \
//	  -subj "/O=chmigrate/CN=chmigrate test CA"
//	openssl genrsa -out client.key 2048
//	openssl req -new -key client.key -out client.csr -subj "/O=chmigrate/CN=migrator"
//	openssl x509 -req -in client.csr -CA ca.crt -CAkey ca.key -CAcreateserial \
//	  -out client.crt -days 3650 -sha256

func TestGetTLSConfig(t *testing.T) {
	var (
		caFile   = filepath.Join("testdata", "certs", "ca.crt")
		certFile = filepath.Join("testdata", "certs", "client.crt")
		keyFile  = filepath.Join("testdata", "certs", "client.key")
		missing  = filepath.Join("testdata", "certs", "missing.pem")
	)

	tests := []struct {
		name     string
		settings TLSSettings
		certs    int
		customCA bool
		wantErr  bool
	}{
		{
			name:     "mutual tls",
			settings: TLSSettings{CAFile: caFile, CertFile: certFile, KeyFile: keyFile},
			certs:    1,
			customCA: true,
		},
		{name: "ca only", settings: TLSSettings{CAFile: caFile}, customCA: true},
		{name: "client cert with system roots", settings: TLSSettings{CertFile: certFile, KeyFile: keyFile}, certs: 1},
		{name: "nothing configured", settings: TLSSettings{}},
		{name: "ca file holds no certificates", settings: TLSSettings{CAFile: keyFile}, wantErr: true},
		{name: "cert without key", settings: TLSSettings{CertFile: certFile}, wantErr: true},
		{name: "key without cert", settings: TLSSettings{KeyFile: keyFile}, wantErr: true},
		{name: "key and cert swapped", settings: TLSSettings{CertFile: keyFile, KeyFile: certFile}, wantErr: true},
		{name: "missing cert file", settings: TLSSettings{CertFile: missing, KeyFile: keyFile}, wantErr: true},
		{name: "missing ca file", settings: TLSSettings{CAFile: missing}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GetTLSConfig(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			require.Len(t, cfg.Certificates, tt.certs)
			require.Equal(t, tt.customCA, cfg.RootCAs != nil)
		})
	}
}
