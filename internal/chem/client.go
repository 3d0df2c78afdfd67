// Package chem talks to the external structure rendering service. The
// service is opaque and may be down; callers degrade to a placeholder
// instead of failing the page.
package chem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("structure renderer unavailable")

// PlaceholderSVG is what detail pages show when rendering fails.
const PlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="60"><text x="10" y="35" font-size="12">structure unavailable</text></svg>`

type Descriptors struct {
	Formula         string  `json:"formula"`
	MolecularWeight float64 `json:"molecular_weight"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// RenderStructure returns the SVG rendering of a SMILES string.
func (c *Client) RenderStructure(smiles string) (string, error) {
	if c.baseURL == "" || smiles == "" {
		return "", ErrUnavailable
	}

	resp, err := c.http.Get(c.baseURL + "/render?smiles=" + url.QueryEscape(smiles))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(body), nil
}

// ComputeDescriptors asks the renderer for molecular formula and weight.
func (c *Client) ComputeDescriptors(smiles string) (*Descriptors, error) {
	if c.baseURL == "" || smiles == "" {
		return nil, ErrUnavailable
	}

	resp, err := c.http.Get(c.baseURL + "/descriptors?smiles=" + url.QueryEscape(smiles))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var d Descriptors
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &d, nil
}
