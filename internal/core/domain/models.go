package domain

import (
	"strconv"
	"strings"
	"time"

	"flixcloud/internal/xmlenc"
)

// DefaultEndpoint is the job submission URL of the transcoding service.
const DefaultEndpoint = "https://www.flixcloud.com/jobs"

// FileRole labels a file reference in a job request.
type FileRole string

const (
	RoleInput     FileRole = "Input"
	RoleOutput    FileRole = "Output"
	RoleWatermark FileRole = "Watermark"
)

// FileReference points at a remote media file, with optional credentials.
// Any url scheme is accepted; the service decides which protocols it supports.
type FileReference struct {
	Role     FileRole
	URL      string
	User     string
	Password string
}

// NewFileReference trims its arguments and builds a reference for role.
func NewFileReference(role FileRole, url, user, password string) *FileReference {
	return &FileReference{
		Role:     role,
		URL:      strings.TrimSpace(url),
		User:     strings.TrimSpace(user),
		Password: strings.TrimSpace(password),
	}
}

// HasCredentials reports whether a user or password is set.
func (f *FileReference) HasCredentials() bool {
	return f.User != "" || f.Password != ""
}

// Validate returns one message per violated rule, labeled with the role.
func (f *FileReference) Validate() []string {
	var errs []string
	if f.URL == "" {
		errs = append(errs, string(f.Role)+" file url required.")
	}
	if f.User != "" && f.Password == "" {
		errs = append(errs, string(f.Role)+" password needed (user supplied).")
	}
	if f.Password != "" && f.User == "" {
		errs = append(errs, string(f.Role)+" user needed (password supplied).")
	}
	return errs
}

// TransferRecord is the url plus an optional parameters block carrying the
// credentials. The block is left out when no credentials are set.
func (f *FileReference) TransferRecord() xmlenc.Map {
	rec := xmlenc.Map{{Tag: "url", Value: xmlenc.Text(f.URL)}}
	if f.HasCredentials() {
		rec = append(rec, xmlenc.Entry{Tag: "parameters", Value: xmlenc.Map{
			{Tag: "user", Value: xmlenc.Text(f.User)},
			{Tag: "password", Value: xmlenc.Text(f.Password)},
		}})
	}
	return rec
}

// TrustMode selects how the server certificate is verified.
type TrustMode int

const (
	TrustDefault TrustMode = iota
	TrustCAFile
	TrustCADir
	TrustInsecure
)

func (m TrustMode) String() string {
	switch m {
	case TrustCAFile:
		return "ca-file"
	case TrustCADir:
		return "ca-dir"
	case TrustInsecure:
		return "insecure"
	default:
		return "default"
	}
}

// TransportOptions configures the HTTP call made for a job request.
type TransportOptions struct {
	// Timeout bounds connection establishment. Zero means no timeout.
	Timeout time.Duration
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string
	// CADir is a directory of PEM certificates used instead of the system roots.
	CADir string
	// Insecure skips verification, even when a CA is configured.
	Insecure bool
}

// TrustMode reports the effective verification mode.
func (o TransportOptions) TrustMode() TrustMode {
	switch {
	case o.Insecure:
		return TrustInsecure
	case o.CAFile != "":
		return TrustCAFile
	case o.CADir != "":
		return TrustCADir
	default:
		return TrustDefault
	}
}

// JobRequest is a transcoding job ready to be validated and sent.
type JobRequest struct {
	APIKey    string
	RecipeID  int
	Input     *FileReference
	Output    *FileReference
	Watermark *FileReference
	Transport TransportOptions
}

// NewJobRequest creates a request for the given API key and recipe.
func NewJobRequest(apiKey string, recipeID int) *JobRequest {
	return &JobRequest{APIKey: apiKey, RecipeID: recipeID}
}

// ParseRecipeID converts a recipe id given as text. Anything that is not a
// positive integer yields 0, which fails validation.
func ParseRecipeID(s string) int {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func (r *JobRequest) SetInput(url, user, password string) {
	r.Input = NewFileReference(RoleInput, url, user, password)
}

func (r *JobRequest) SetOutput(url, user, password string) {
	r.Output = NewFileReference(RoleOutput, url, user, password)
}

func (r *JobRequest) SetWatermark(url, user, password string) {
	r.Watermark = NewFileReference(RoleWatermark, url, user, password)
}

// Files returns the file references that are set, in wire order.
func (r *JobRequest) Files() []*FileReference {
	files := make([]*FileReference, 0, 3)
	for _, f := range []*FileReference{r.Input, r.Output, r.Watermark} {
		if f != nil {
			files = append(files, f)
		}
	}
	return files
}

// Validate collects every configuration and file error. Unset file
// references are skipped.
func (r *JobRequest) Validate() []string {
	var errs []string
	if r.APIKey == "" {
		errs = append(errs, "API key is required.")
	}
	if r.RecipeID <= 0 {
		errs = append(errs, "Recipe ID is required and must be an integer.")
	}
	for _, f := range r.Files() {
		errs = append(errs, f.Validate()...)
	}
	return errs
}

// Document builds the api-request tree sent to the service.
func (r *JobRequest) Document() xmlenc.Map {
	locations := xmlenc.Map{}
	if r.Input != nil {
		locations = append(locations, xmlenc.Entry{Tag: "input", Value: r.Input.TransferRecord()})
	}
	if r.Output != nil {
		locations = append(locations, xmlenc.Entry{Tag: "output", Value: r.Output.TransferRecord()})
	}
	if r.Watermark != nil {
		locations = append(locations, xmlenc.Entry{Tag: "watermark", Value: r.Watermark.TransferRecord()})
	}

	return xmlenc.Map{
		{Value: xmlenc.Raw(xmlenc.Prolog)},
		{Tag: "api-request", Value: xmlenc.Map{
			{Tag: "api-key", Value: xmlenc.Text(r.APIKey)},
			{Tag: "recipe-id", Value: xmlenc.Text(strconv.Itoa(r.RecipeID))},
			{Tag: "file-locations", Value: locations},
		}},
	}
}

// XML serializes the request.
func (r *JobRequest) XML() string {
	return xmlenc.Encode(r.Document())
}

// Submission holds what happened during one send.
type Submission struct {
	RequestID     string
	RequestXML    string
	StatusCode    int
	Body          []byte
	JobID         string
	InitializedAt string // UTC, YYYY-MM-DDTHH:MM:SSZ, passed through verbatim
	Success       bool
}
