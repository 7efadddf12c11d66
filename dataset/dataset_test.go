package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/model"
)

const sampleCSV = `,id,sg_uf,qt_socios,fl_rm
0,a1,SP,3,SIM
1,a2,,NaN,NAO
2,a3,"RJ, capital",1.5,
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV), "id")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "sg_uf", "qt_socios", "fl_rm"}, tbl.Columns)
	assert.Equal(t, []string{"a1", "a2", "a3"}, tbl.IDs())
	assert.Equal(t, 3, tbl.Len())

	a1 := tbl.Records[0]
	assert.Equal(t, String("SP"), a1.Get("sg_uf"))
	assert.Equal(t, String("3"), a1.Get("qt_socios"))

	a2 := tbl.Records[1]
	assert.True(t, a2.Get("sg_uf").IsMissing())
	assert.True(t, a2.Get("qt_socios").IsMissing())
	assert.Equal(t, String("NAO"), a2.Get("fl_rm"))

	a3 := tbl.Records[2]
	assert.Equal(t, "RJ, capital", a3.Get("sg_uf").S)
	assert.True(t, a3.Get("fl_rm").IsMissing())
	assert.True(t, a3.Get("not_a_column").IsMissing())

	assert.InDelta(t, 1.0/3, tbl.MissingFraction("sg_uf"), 1e-12)
	assert.InDelta(t, 2.0/3, tbl.MissingFraction("fl_rm")+tbl.MissingFraction("sg_uf"), 1e-12)
}

func TestReadCSV_Options(t *testing.T) {
	doc := "id;city;size\nx;-;10\n"
	tbl, err := ReadCSV(strings.NewReader(doc), "id",
		WithComma(';'),
		WithMissingMarkers("-"),
		WithColumns("city"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, tbl.Columns)
	assert.True(t, tbl.Records[0].Get("city").IsMissing())
	assert.True(t, tbl.Records[0].Get("size").IsMissing())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "id")
	assert.ErrorIs(t, err, model.ErrSchema)

	_, err = ReadCSV(strings.NewReader("cnpj,city\n1,x\n"), "id")
	assert.ErrorIs(t, err, model.ErrSchema)

	_, err = ReadCSV(strings.NewReader("id,city,city\n1,x,y\n"), "id")
	assert.ErrorIs(t, err, model.ErrSchema)

	_, err = ReadCSV(strings.NewReader("id,city\n1,x,extra\n"), "id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrSchema)
}

func TestReadPortfolio(t *testing.T) {
	ids, err := ReadPortfolio(strings.NewReader("id,name\np1,foo\n,bar\np2,baz\n"), "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
}

func TestOpen_Compressed(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("id,city\nc1,SP\nc2,RJ\n")

	plain := filepath.Join(dir, "market.csv")
	require.NoError(t, os.WriteFile(plain, payload, 0o600))

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "market.csv.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o600))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "market.csv.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll(payload, nil), 0o600))
	require.NoError(t, enc.Close())

	var zb bytes.Buffer
	zw := zip.NewWriter(&zb)
	readme, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("not data"))
	require.NoError(t, err)
	entry, err := zw.Create("estaticos_market.csv")
	require.NoError(t, err)
	_, err = entry.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zipPath := filepath.Join(dir, "market.zip")
	require.NoError(t, os.WriteFile(zipPath, zb.Bytes(), 0o600))

	for _, path := range []string{plain, gzPath, zstPath, zipPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tbl, err := ReadCSVFile(path, "id")
			require.NoError(t, err)
			assert.Equal(t, []string{"c1", "c2"}, tbl.IDs())
			assert.Equal(t, "RJ", tbl.Records[1].Get("city").S)
		})
	}
}

func TestOpen_ZipWithoutCSV(t *testing.T) {
	var zb bytes.Buffer
	zw := zip.NewWriter(&zb)
	w, err := zw.Create("notes.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(path, zb.Bytes(), 0o600))

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrNoCSVEntry)
}

func TestValue(t *testing.T) {
	assert.True(t, Number(nan()).IsMissing())
	assert.Equal(t, "True", Bool(true).Text())
	assert.Equal(t, "False", Bool(false).Text())
	assert.Equal(t, "1.5", Number(1.5).Text())
	assert.Equal(t, "3", Number(3).Text())
	assert.Equal(t, "", Missing().Text())
	assert.Equal(t, "Number", KindNumber.String())
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
