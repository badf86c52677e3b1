package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flixcloud/internal/xmlenc"
)

func TestNewFileReference_Trims(t *testing.T) {
	f := NewFileReference(RoleInput, "  http://example.com/a.mpg \n", " bob ", "\tpw ")
	assert.Equal(t, "http://example.com/a.mpg", f.URL)
	assert.Equal(t, "bob", f.User)
	assert.Equal(t, "pw", f.Password)
}

func TestFileReference_Validate(t *testing.T) {
	roles := []FileRole{RoleInput, RoleOutput, RoleWatermark}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			assert.Empty(t, NewFileReference(role, "s3://bucket/key", "", "").Validate())
			assert.Empty(t, NewFileReference(role, "s3://bucket/key", "u", "p").Validate())

			assert.Equal(t,
				[]string{string(role) + " file url required."},
				NewFileReference(role, "   ", "", "").Validate())

			assert.Equal(t,
				[]string{string(role) + " password needed (user supplied)."},
				NewFileReference(role, "ftp://host/f", "u", "").Validate())

			assert.Equal(t,
				[]string{string(role) + " user needed (password supplied)."},
				NewFileReference(role, "ftp://host/f", "", "p").Validate())

			assert.Equal(t,
				[]string{
					string(role) + " file url required.",
					string(role) + " user needed (password supplied).",
				},
				NewFileReference(role, "", "", "p").Validate())
		})
	}
}

func TestFileReference_AnyScheme(t *testing.T) {
	for _, url := range []string{"gopher://old/file", "file:///tmp/x", "not even a url"} {
		assert.Empty(t, NewFileReference(RoleOutput, url, "", "").Validate(), url)
	}
}

func TestFileReference_TransferRecord(t *testing.T) {
	t.Run("without credentials", func(t *testing.T) {
		rec := NewFileReference(RoleInput, "http://a/in", "", "").TransferRecord()
		assert.Equal(t, xmlenc.Map{{Tag: "url", Value: xmlenc.Text("http://a/in")}}, rec)
	})

	t.Run("with credentials", func(t *testing.T) {
		rec := NewFileReference(RoleOutput, "ftp://a/out", "bob", "pw").TransferRecord()
		require.Len(t, rec, 2)
		assert.Equal(t, "parameters", rec[1].Tag)
		assert.Equal(t, xmlenc.Map{
			{Tag: "user", Value: xmlenc.Text("bob")},
			{Tag: "password", Value: xmlenc.Text("pw")},
		}, rec[1].Value)
	})
}

func TestParseRecipeID(t *testing.T) {
	cases := map[string]int{
		"99":   99,
		" 7 ":  7,
		"0":    0,
		"-3":   0,
		"abc":  0,
		"":     0,
		"12.5": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRecipeID(in), "input %q", in)
	}
}

func TestJobRequest_Validate(t *testing.T) {
	t.Run("missing key and recipe without files", func(t *testing.T) {
		errs := NewJobRequest("", 0).Validate()
		assert.Equal(t, []string{
			"API key is required.",
			"Recipe ID is required and must be an integer.",
		}, errs)
	})

	t.Run("accumulates file errors in wire order", func(t *testing.T) {
		req := NewJobRequest("", -1)
		req.SetInput("", "", "")
		req.SetOutput("ftp://host/out", "u", "")
		req.SetWatermark("http://host/wm.png", "", "p")

		assert.Equal(t, []string{
			"API key is required.",
			"Recipe ID is required and must be an integer.",
			"Input file url required.",
			"Output password needed (user supplied).",
			"Watermark user needed (password supplied).",
		}, req.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		req := NewJobRequest("key", 99)
		req.SetInput("http://host/in.mpg", "", "")
		req.SetOutput("sftp://host/out.flv", "u", "p")
		assert.Empty(t, req.Validate())
	})
}

func TestJobRequest_XML(t *testing.T) {
	req := NewJobRequest("2j1l:kd3add", 99)
	req.SetInput("http://www.example.com/videos/input.mpg", "", "")
	req.SetOutput("ftp://www.example.com/httpdocs/videos/output.flv", "username", "password")

	out := req.XML()
	assert.True(t, strings.HasPrefix(out, xmlenc.Prolog+"\n"))
	assert.Contains(t, out, "<api-key>2j1l:kd3add</api-key>")
	assert.Contains(t, out, "<recipe-id>99</recipe-id>")
	assert.Contains(t, out, "<input>\n      <url>http://www.example.com/videos/input.mpg</url>\n    </input>")
	assert.Contains(t, out, "<user>username</user>")
	assert.NotContains(t, out, "<watermark>")

	req.SetWatermark("http://www.example.com/videos/watermark.png", "", "")
	assert.Contains(t, req.XML(), "<watermark>\n      <url>http://www.example.com/videos/watermark.png</url>\n    </watermark>")

	fields, err := xmlenc.ParseFields([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "2j1l:kd3add", fields["api-key"])
	assert.Equal(t, "99", fields["recipe-id"])
}

func TestTransportOptions_TrustMode(t *testing.T) {
	assert.Equal(t, TrustDefault, TransportOptions{}.TrustMode())
	assert.Equal(t, TrustCAFile, TransportOptions{CAFile: "ca.pem"}.TrustMode())
	assert.Equal(t, TrustCADir, TransportOptions{CADir: "/etc/ssl/certs"}.TrustMode())
	assert.Equal(t, TrustInsecure, TransportOptions{CAFile: "ca.pem", CADir: "/x", Insecure: true}.TrustMode())
	assert.Equal(t, "insecure", TrustInsecure.String())
}

func TestJobState_Known(t *testing.T) {
	assert.True(t, StateSuccessful.Known())
	assert.True(t, StateCancelled.Known())
	assert.True(t, StateFailed.Known())
	assert.False(t, JobState("weird_state").Known())
	assert.False(t, JobState("").Known())
}
