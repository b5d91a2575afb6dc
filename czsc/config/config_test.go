package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 6, c.MinBiLen)
	assert.Equal(t, 50, c.MaxBiNum)
	assert.Equal(t, 5000, c.MaxCount)
	assert.Equal(t, 2, c.Digits)
	assert.Equal(t, 0.0002, c.FeeRate)
	assert.Equal(t, WeightTypeTS, c.WeightType)
	assert.Equal(t, 252, c.YearlyDays)
	assert.False(t, c.ChangeThEnabled())

	// 修改副本不影响默认值
	c.MinBiLen = 9
	assert.Equal(t, 6, Default().MinBiLen)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte("min_bi_len: 7\nchange_th: 0.01\nweight_type: cs\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, c.MinBiLen)
	assert.True(t, c.ChangeThEnabled())
	assert.Equal(t, WeightTypeCS, c.WeightType)
	assert.Equal(t, 50, c.MaxBiNum)

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *empty)

	_, err = Parse([]byte("min_bi_len: 7\nunknown_key: 1\n"))
	assert.ErrorIs(t, err, model.ErrInputFormat)

	_, err = Parse([]byte("yearly_days: 0\n"))
	assert.ErrorIs(t, err, model.ErrConfigOutOfRange)

	_, err = Parse([]byte("weight_type: xs\n"))
	assert.ErrorIs(t, err, model.ErrConfigOutOfRange)
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "czsc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_bi_num: 20\nfee_rate: 0.001\n"), 0o644))

	t.Setenv("CZSC_MAX_BI_NUM", "30")
	t.Setenv("CZSC_WEIGHT_TYPE", "CS")
	t.Setenv("CZSC_DIGITS", " 3 ")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, c.MaxBiNum)
	assert.Equal(t, 0.001, c.FeeRate)
	assert.Equal(t, WeightTypeCS, c.WeightType)
	assert.Equal(t, 3, c.Digits)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CZSC_TEST_DOTENV_MIN_BI_LEN=8\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("CZSC_TEST_DOTENV_MIN_BI_LEN") })

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "8", os.Getenv("CZSC_TEST_DOTENV_MIN_BI_LEN"))

	c := Default()
	require.NoError(t, c.applyEnv("CZSC_TEST_DOTENV_"))
	assert.Equal(t, 8, c.MinBiLen)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "nope.env")))
}

func TestLoadMalformedEnv(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"float", "CZSC_FEE_RATE", "0,0002"},
		{"int", "CZSC_DIGITS", "two"},
		{"bool", "CZSC_INCLUDE_OPEN_PAIRS", "yes please"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load("")
			require.ErrorIs(t, err, model.ErrInputFormat)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
