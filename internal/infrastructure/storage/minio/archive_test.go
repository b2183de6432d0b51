package minio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	apperrors "github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

type ArchiveTestSuite struct {
	suite.Suite
	api     *memoryAPI
	client  *MinIOClient
	archive *SpectrumArchive
}

func (s *ArchiveTestSuite) SetupTest() {
	s.api = newMemoryAPI()
	c, err := newClientWithAPI(context.Background(), s.api, &MinIOConfig{Bucket: "spectra"}, nil)
	s.Require().NoError(err)
	s.client = c
	s.archive = NewSpectrumArchive(c, nil)
	s.archive.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }
}

func (s *ArchiveTestSuite) TestStoreAndLoad() {
	curve := nmr.Spectrum{Axis: []float64{-1, 0.5, 2}, Intensity: []float64{0, 0.25, 1}}
	res, err := s.archive.Store(context.Background(), "a1", curve)
	s.Require().NoError(err)
	s.Equal("spectra/2026/02/03/a1.csv", res.Key)
	s.Equal("spectra", res.Bucket)
	s.Equal(3, res.Points)
	s.Equal("3", s.api.meta["spectra/"+res.Key]["points"])

	got, err := s.archive.Load(context.Background(), res.Key)
	s.Require().NoError(err)
	s.Equal(curve, got)

	ok, err := s.archive.Exists(context.Background(), res.Key)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.archive.Delete(context.Background(), res.Key))
	ok, err = s.archive.Exists(context.Background(), res.Key)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ArchiveTestSuite) TestLoadMissing() {
	_, err := s.archive.Load(context.Background(), "spectra/none.csv")
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func (s *ArchiveTestSuite) TestStoreUploadFailure() {
	s.api.putErr = errors.New("disk full")
	_, err := s.archive.Store(context.Background(), "a1", nmr.Spectrum{Axis: []float64{0}, Intensity: []float64{0}})
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeArchiveFailed))
}

func (s *ArchiveTestSuite) TestStoreRejectsBadInput() {
	_, err := s.archive.Store(context.Background(), "", nmr.Spectrum{})
	s.Error(err)
	_, err = s.archive.Store(context.Background(), "a1", nmr.Spectrum{Axis: []float64{0, 1}, Intensity: []float64{0}})
	s.Error(err)
}

func (s *ArchiveTestSuite) TestStoreAfterClose() {
	s.Require().NoError(s.client.Close())
	_, err := s.archive.Store(context.Background(), "a1", nmr.Spectrum{})
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeArchiveFailed))
}

func (s *ArchiveTestSuite) TestPresignedURL() {
	u, err := s.archive.PresignedURL(context.Background(), "spectra/2026/02/03/a1.csv", time.Minute)
	s.Require().NoError(err)
	s.Contains(u, "X-Amz-Expires=1m0s")
}

func TestArchiveTestSuite(t *testing.T) {
	suite.Run(t, new(ArchiveTestSuite))
}

func TestEncodeCSV(t *testing.T) {
	out, err := EncodeCSV(nmr.Spectrum{Axis: []float64{1.5, 2}, Intensity: []float64{0.125, 1e-9}})
	require.NoError(t, err)
	assert.Equal(t, "ppm,intensity\n1.5,0.125\n2,1e-09\n", string(out))
}

func TestDecodeCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"bad header": "x,y\n1,2\n",
		"bad float":  "ppm,intensity\n1,abc\n",
		"bad fields": "ppm,intensity\n1\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestDecodeCSV_HeaderOnly(t *testing.T) {
	s, err := DecodeCSV(strings.NewReader("ppm,intensity\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 12, 31, 23, 0, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, "spectra/2026/12/31/id.csv", ObjectKey("id", at))
}

//Personal.AI order the ending
