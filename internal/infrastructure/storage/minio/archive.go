package minio

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

const (
	spectraPrefix  = "spectra/"
	csvContentType = "text/csv"
)

var csvHeader = []string{"ppm", "intensity"}

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ArchivedSpectrum describes one stored CSV.
type ArchivedSpectrum struct {
	Key      string    `json:"key"`
	Bucket   string    `json:"bucket"`
	Size     int64     `json:"size"`
	ETag     string    `json:"etag,omitempty"`
	StoredAt time.Time `json:"stored_at"`
	Points   int       `json:"points"`
}

// SpectrumArchive stores spectra as two-column CSV objects.
type SpectrumArchive struct {
	client *MinIOClient
	logger logging.Logger
	now    func() time.Time
}

// NewSpectrumArchive wraps client.
func NewSpectrumArchive(client *MinIOClient, log logging.Logger) *SpectrumArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SpectrumArchive{client: client, logger: log, now: time.Now}
}

// ObjectKey is the key a spectrum for analysisID is stored under on day at.
func ObjectKey(analysisID string, at time.Time) string {
	return fmt.Sprintf("%s%s/%s.csv", spectraPrefix, at.UTC().Format("2006/01/02"), analysisID)
}

// Store uploads s under a key derived from analysisID.  Failures carry
// NMR_005.
func (a *SpectrumArchive) Store(ctx context.Context, analysisID string, s nmr.Spectrum) (*ArchivedSpectrum, error) {
	if analysisID == "" {
		return nil, ErrInvalidRequest.WithDetail("analysis id is empty")
	}
	if len(s.Axis) != len(s.Intensity) {
		return nil, ErrInvalidRequest.WithDetail("axis and intensity lengths differ")
	}
	if a.client.isClosed() {
		return nil, errors.Wrap(ErrMinIOClientClosed, errors.ErrCodeArchiveFailed, "archive unavailable")
	}

	body, err := EncodeCSV(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArchiveFailed, "encode spectrum")
	}

	storedAt := a.now().UTC()
	key := ObjectKey(analysisID, storedAt)
	opts := minio.PutObjectOptions{
		ContentType: csvContentType,
		UserMetadata: map[string]string{
			"analysis-id": analysisID,
			"points":      strconv.Itoa(len(s.Axis)),
		},
	}
	info, err := a.client.GetClient().PutObject(ctx, a.client.Bucket(), key, bytes.NewReader(body), int64(len(body)), opts)
	if err != nil {
		a.logger.Error("spectrum upload failed", logging.AnalysisID(analysisID), logging.String("key", key), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeArchiveFailed, "upload spectrum").WithDetail(key)
	}
	a.logger.Debug("spectrum archived",
		logging.AnalysisID(analysisID),
		logging.String("key", key),
		logging.Int64("bytes", info.Size))

	return &ArchivedSpectrum{
		Key:      key,
		Bucket:   a.client.Bucket(),
		Size:     info.Size,
		ETag:     info.ETag,
		StoredAt: storedAt,
		Points:   len(s.Axis),
	}, nil
}

// Load downloads and decodes the CSV at key.
func (a *SpectrumArchive) Load(ctx context.Context, key string) (nmr.Spectrum, error) {
	if key == "" {
		return nmr.Spectrum{}, ErrInvalidRequest.WithDetail("key is empty")
	}
	obj, err := a.client.GetClient().GetObject(ctx, a.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nmr.Spectrum{}, mapObjectError(err, key)
	}
	defer obj.Close()

	s, err := DecodeCSV(obj)
	if err != nil {
		return nmr.Spectrum{}, mapObjectError(err, key)
	}
	return s, nil
}

// Exists reports whether key is present.
func (a *SpectrumArchive) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.GetClient().StatObject(ctx, a.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeStorageError, "stat spectrum")
	}
	return true, nil
}

// Delete removes key.  Deleting a missing key succeeds.
func (a *SpectrumArchive) Delete(ctx context.Context, key string) error {
	if err := a.client.GetClient().RemoveObject(ctx, a.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "delete spectrum")
	}
	return nil
}

// PresignedURL signs a time-limited download link for key.
func (a *SpectrumArchive) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return a.client.GeneratePresignedGetURL(ctx, key, expiry)
}

// EncodeCSV renders s as "ppm,intensity" rows with a header line.
func EncodeCSV(s nmr.Spectrum) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV streams s to w in the archive format.
func WriteCSV(w io.Writer, s nmr.Spectrum) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	n := len(s.Axis)
	if len(s.Intensity) < n {
		n = len(s.Intensity)
	}
	rec := make([]string, 2)
	for i := 0; i < n; i++ {
		rec[0] = strconv.FormatFloat(s.Axis[i], 'g', -1, 64)
		rec[1] = strconv.FormatFloat(s.Intensity[i], 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV parses the archive format back into a spectrum.
func DecodeCSV(r io.Reader) (nmr.Spectrum, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		return nmr.Spectrum{}, fmt.Errorf("read header: %w", err)
	}
	if head[0] != csvHeader[0] || head[1] != csvHeader[1] {
		return nmr.Spectrum{}, fmt.Errorf("unexpected header %q", head)
	}

	var s nmr.Spectrum
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nmr.Spectrum{}, err
		}
		x, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nmr.Spectrum{}, fmt.Errorf("line %d: %w", line, err)
		}
		y, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nmr.Spectrum{}, fmt.Errorf("line %d: %w", line, err)
		}
		s.Axis = append(s.Axis, x)
		s.Intensity = append(s.Intensity, y)
	}
	return s, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func mapObjectError(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrap(err, errors.CodeStorageError, "download spectrum").WithDetail(key)
}

//Personal.AI order the ending
