package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/docsift/internal/parser"
	"github.com/dgallion1/docsift/internal/rank"
)

// Source is one input document, read from Path unless Data is set.
type Source struct {
	Name string
	Path string
	Data []byte
}

// Request is one ranking batch.
type Request struct {
	Persona   string
	Task      string
	Documents []Source
	// CaseName names the default output artifact when set.
	CaseName string
}

func (r Request) Query() rank.Query {
	return rank.Query{Persona: r.Persona, Task: r.Task}
}

// DocumentNames lists the input names in request order.
func (r Request) DocumentNames() []string {
	names := make([]string, len(r.Documents))
	for i, d := range r.Documents {
		names[i] = d.Name
	}
	return names
}

type requestFile struct {
	ChallengeInfo struct {
		ChallengeID  string `json:"challenge_id"`
		TestCaseName string `json:"test_case_name"`
		Description  string `json:"description"`
	} `json:"challenge_info"`
	Documents []struct {
		Filename string `json:"filename"`
		Title    string `json:"title"`
	} `json:"documents"`
	Persona struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
}

// LoadRequest reads a request file. Document filenames resolve against
// docDir, or against the request file's directory when docDir is empty.
func LoadRequest(path, docDir string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	var rf requestFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return Request{}, fmt.Errorf("parse request %s: %w", path, err)
	}
	if rf.JobToBeDone.Task == "" {
		return Request{}, fmt.Errorf("request %s: job_to_be_done.task is required", path)
	}
	if docDir == "" {
		docDir = filepath.Dir(path)
	}

	req := Request{
		Persona:  rf.Persona.Role,
		Task:     rf.JobToBeDone.Task,
		CaseName: rf.ChallengeInfo.TestCaseName,
	}
	for _, d := range rf.Documents {
		if d.Filename == "" {
			continue
		}
		req.Documents = append(req.Documents, Source{Name: d.Filename, Path: filepath.Join(docDir, d.Filename)})
	}
	return req, nil
}

// ScanDir lists the supported documents in dir, sorted by name. Other
// files and subdirectories are ignored.
func ScanDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []Source
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		out = append(out, Source{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
