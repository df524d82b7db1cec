// Package request abstracts the submitted form data widgets read from.
package request

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// Request is a read-only mapping from submitted field names to values.
// A value is a string, a []string when the name was submitted more than
// once, or a *FileUpload.
type Request interface {
	Get(name string) (any, bool)
	Has(name string) bool
}

// FileUpload is a submitted file.
type FileUpload struct {
	Filename string
	Header   textproto.MIMEHeader
	Data     []byte
}

// Size returns the number of bytes uploaded.
func (f *FileUpload) Size() int { return len(f.Data) }

// Empty reports an upload field submitted without a file.
func (f *FileUpload) Empty() bool { return f == nil || (f.Filename == "" && len(f.Data) == 0) }

// Values is the default Request implementation.
type Values struct {
	fields map[string][]string
	files  map[string]*FileUpload
}

// Empty is a request without any submitted values.
var Empty Request = &Values{}

// NewValues copies fields into a request.
func NewValues(fields map[string][]string) *Values {
	v := &Values{fields: make(map[string][]string, len(fields))}
	for name, values := range fields {
		v.fields[name] = append([]string(nil), values...)
	}
	return v
}

// Set replaces the values of name.
func (v *Values) Set(name string, values ...string) *Values {
	if v.fields == nil {
		v.fields = make(map[string][]string)
	}
	v.fields[name] = append([]string(nil), values...)
	return v
}

// Add appends values to name.
func (v *Values) Add(name string, values ...string) *Values {
	if v.fields == nil {
		v.fields = make(map[string][]string)
	}
	v.fields[name] = append(v.fields[name], values...)
	return v
}

// SetFile stores an upload for name.
func (v *Values) SetFile(name string, file *FileUpload) *Values {
	if v.files == nil {
		v.files = make(map[string]*FileUpload)
	}
	v.files[name] = file
	return v
}

// Del removes name.
func (v *Values) Del(name string) *Values {
	delete(v.fields, name)
	delete(v.files, name)
	return v
}

func (v *Values) Get(name string) (any, bool) {
	if file, ok := v.files[name]; ok {
		return file, true
	}
	values, ok := v.fields[name]
	if !ok {
		return nil, false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return append([]string(nil), values...), true
}

func (v *Values) Has(name string) bool {
	if _, ok := v.files[name]; ok {
		return true
	}
	_, ok := v.fields[name]
	return ok
}

// Names lists the submitted names in sorted order.
func (v *Values) Names() []string {
	names := make([]string, 0, len(v.fields)+len(v.files))
	for name := range v.fields {
		names = append(names, name)
	}
	for name := range v.files {
		if _, dup := v.fields[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// WithPrefix returns the submitted names starting with prefix.
func (v *Values) WithPrefix(prefix string) []string {
	var out []string
	for _, name := range v.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Strings normalises a request value into a list of strings. Uploads yield
// their file name.
func Strings(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return []string{typed}
	case []string:
		return typed
	case *FileUpload:
		if typed == nil {
			return nil
		}
		return []string{typed.Filename}
	default:
		return []string{fmt.Sprint(typed)}
	}
}

// DefaultMaxMemory bounds the multipart bytes kept in memory by FromHTTP.
const DefaultMaxMemory = 32 << 20

// FromHTTP collects the form values and uploads of r. Query parameters are
// included the same way net/http merges them into r.Form.
func FromHTTP(r *http.Request) (*Values, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return nil, fmt.Errorf("request: parse multipart: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("request: parse form: %w", err)
	}

	v := NewValues(r.Form)
	if r.MultipartForm == nil {
		return v, nil
	}
	for name, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		upload, err := readUpload(headers[0])
		if err != nil {
			return nil, fmt.Errorf("request: read upload %q: %w", name, err)
		}
		v.SetFile(name, upload)
	}
	return v, nil
}

func readUpload(header *multipart.FileHeader) (*FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &FileUpload{Filename: header.Filename, Header: header.Header, Data: data}, nil
}
