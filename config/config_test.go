package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
	assert.Nil(t, splitList(""))
}

func TestLoadEnv_DefaultsAndOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ANALYSIS_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	LoadEnv()

	assert.Equal(t, "8080", PORT)
	assert.Equal(t, "memory", STORAGE_DRIVER)
	assert.Equal(t, "", DB_URL)
	assert.Equal(t, int64(10*1024*1024), MAX_UPLOAD_BYTES)
	assert.Equal(t, int64(50_000_000), MAX_IMAGE_PIXELS)
	assert.Equal(t, 400, THUMBNAIL_SIZE)
	assert.Equal(t, 80, THUMBNAIL_QUALITY)
	assert.Equal(t, 30*time.Second, ANALYSIS_TIMEOUT)
	assert.Equal(t, 4, ANALYSIS_WORKERS)
	assert.Equal(t, "memory", QUEUE_DRIVER)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, KAFKA_BROKERS)
	assert.Equal(t, "inline", BLOB_DRIVER)
	assert.Equal(t, "gemini-2.5-flash", GEMINI_MODEL)
}
