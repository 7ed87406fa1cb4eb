package db

import (
	"testing"

	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	base := config.Config{
		DBHost: "db.internal", DBPort: "5432", DBUser: "hirehub",
		DBPassword: "s3cret", DBName: "hirehub", DBSSLMode: "require",
	}

	pg := base
	pg.DBType = "postgres"
	dsn, err := DSN(pg)
	require.NoError(t, err)
	assert.Equal(t, "host=db.internal port=5432 user=hirehub password=s3cret dbname=hirehub sslmode=require TimeZone=UTC", dsn)

	my := base
	my.DBType = "mysql"
	my.DBPort = "3306"
	dsn, err = DSN(my)
	require.NoError(t, err)
	assert.Contains(t, dsn, "hirehub:s3cret@tcp(db.internal:3306)/hirehub?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	lite := config.Config{DBType: "sqlite"}
	dsn, err = DSN(lite)
	require.NoError(t, err)
	assert.Equal(t, "hirehub.db?_foreign_keys=on", dsn)

	_, err = Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}
