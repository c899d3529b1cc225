package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/genome"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Position *int   `json:"position,omitempty"`
	Expected string `json:"expected,omitempty"`
}

type variantResponse struct {
	Chrom    string `json:"chrom"`
	Pos      int64  `json:"pos"`
	Ref      string `json:"ref"`
	Alt      string `json:"alt"`
	SVLength int64  `json:"sv_length,omitempty"`
}

type parseResponse struct {
	Name    string           `json:"name"`
	Variant variantResponse  `json:"variant"`
	VCF     *variantResponse `json:"vcf,omitempty"`
}

type formatResponse struct {
	Name       string `json:"name"`
	Transcript string `json:"transcript,omitempty"`
	Gene       string `json:"gene,omitempty"`
}

type convertResponse struct {
	Names []formatResponse `json:"names"`
}

func toResponse(v hgvs.Variant) variantResponse {
	return variantResponse{Chrom: v.Chrom, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt, SVLength: v.SVLength}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleParse resolves ?name= to a genomic variant.
func (s *Server) handleParse(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing name parameter"})
		return
	}

	v, err := hgvs.ParseVariant(name, s.seq, s.lookup)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := parseResponse{Name: name, Variant: toResponse(*v)}
	if s.seq != nil {
		if rec, err := v.VCF(s.seq); err == nil {
			r := toResponse(rec)
			resp.VCF = &r
		}
	}
	c.JSON(http.StatusOK, resp)
}

type variantQuery struct {
	chrom    string
	pos      int64
	ref, alt string
	svLength int64
}

func bindVariant(c *gin.Context) (variantQuery, error) {
	q := variantQuery{chrom: c.Query("chrom"), ref: allele(c.Query("ref")), alt: allele(c.Query("alt"))}
	if q.chrom == "" {
		return q, errors.New("missing chrom parameter")
	}
	pos, err := strconv.ParseInt(c.Query("pos"), 10, 64)
	if err != nil || pos < 1 {
		return q, errors.New("pos must be a positive integer")
	}
	q.pos = pos
	if sv := c.Query("sv_length"); sv != "" {
		if q.svLength, err = strconv.ParseInt(sv, 10, 64); err != nil {
			return q, errors.New("sv_length must be an integer")
		}
	}
	return q, nil
}

// allele maps the placeholders for an empty allele to "".
func allele(s string) string {
	if s == "-" || s == "." {
		return ""
	}
	return s
}

func (s *Server) formatOptions(c *gin.Context, svLength int64) ([]hgvs.FormatOption, error) {
	maxLen := s.opts.MaxAlleleLength
	if v := c.Query("max_allele_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("max_allele_length must be a non-negative integer")
		}
		maxLen = n
	}
	justify := s.opts.Justify
	if v := c.Query("justify"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("justify must be a boolean")
		}
		justify = b
	}
	return []hgvs.FormatOption{
		hgvs.WithSVLength(svLength),
		hgvs.WithMaxAlleleLength(maxLen),
		hgvs.WithJustify(justify && s.seq != nil),
	}, nil
}

// handleFormat names a genomic variant on ?transcript=, or as a g. name
// when no transcript is given.
func (s *Server) handleFormat(c *gin.Context) {
	q, err := bindVariant(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	opts, err := s.formatOptions(c, q.svLength)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := c.Query("transcript")
	if id == "" {
		name, err := hgvs.FormatGenomicName(q.chrom, q.pos, q.ref, q.alt, s.seq, opts...)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, formatResponse{Name: name})
		return
	}

	t := s.lookup.GetTranscript(id)
	if t == nil {
		s.fail(c, hgvs.ErrTranscriptNotFound)
		return
	}
	name, err := hgvs.FormatName(q.chrom, q.pos, q.ref, q.alt, s.seq, t, opts...)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, formatResponse{Name: name, Transcript: t.ID, Gene: t.GeneName})
}

// handleConvert names a VCF-style variant on every overlapping transcript.
func (s *Server) handleConvert(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusNotImplemented, errorResponse{Error: "transcript index not loaded"})
		return
	}
	q, err := bindVariant(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// Alleles are passed as VCF columns so symbolic ALTs keep their meaning.
	v := &vcf.Variant{Chrom: q.chrom, Pos: q.pos, Ref: c.Query("ref"), Alt: c.Query("alt")}
	if q.svLength != 0 {
		v.Info = map[string]string{"SVLEN": strconv.FormatInt(q.svLength, 10)}
	}
	results, err := s.conv.Convert(v)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := convertResponse{Names: make([]formatResponse, len(results))}
	for i, r := range results {
		resp.Names[i] = formatResponse{Name: r.HGVS, Transcript: r.TranscriptID, Gene: r.GeneName}
	}
	c.JSON(http.StatusOK, resp)
}

// fail maps conversion errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		mne *hgvs.MalformedNameError
		ibe *hgvs.InvalidBaseError
		ote *hgvs.OutOfTranscriptError
		ice *hgvs.InvalidCoordinateError
		rme *hgvs.ReferenceMismatchError
		sre *genome.SequenceRangeError
	)

	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &mne):
		status, resp.Kind = http.StatusBadRequest, "malformed_name"
		pos := mne.Pos
		resp.Position, resp.Expected = &pos, mne.Expected
	case errors.As(err, &ibe):
		status, resp.Kind = http.StatusBadRequest, "invalid_base"
	case errors.Is(err, hgvs.ErrEmptyVariant), errors.Is(err, vcf.ErrUnsupportedAllele):
		status, resp.Kind = http.StatusBadRequest, "invalid_variant"
	case errors.Is(err, hgvs.ErrTranscriptNotFound):
		status, resp.Kind = http.StatusNotFound, "transcript_not_found"
	case errors.As(err, &ote):
		status, resp.Kind = http.StatusUnprocessableEntity, "out_of_transcript"
	case errors.As(err, &ice):
		status, resp.Kind = http.StatusUnprocessableEntity, "invalid_coordinate"
	case errors.As(err, &rme):
		status, resp.Kind = http.StatusUnprocessableEntity, "reference_mismatch"
	case errors.As(err, &sre):
		status, resp.Kind = http.StatusUnprocessableEntity, "sequence_range"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, resp)
}
