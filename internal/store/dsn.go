package store

import (
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ConnParams son los datos del servidor compartidos por todos los tenants.
// El nombre de la base varía por tenant.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
	// SQLiteDir es el directorio donde viven los archivos .db (sólo sqlite).
	SQLiteDir string
}

// DSN arma el data source name para la base indicada.
// Con database vacío apunta a la base administrativa del servidor.
func DSN(d Dialect, p ConnParams, database string) string {
	switch d {
	case MySQL:
		cfg := mysql.NewConfig()
		cfg.User = p.User
		cfg.Passwd = p.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(portOr(p.Port, 3306)))
		cfg.DBName = database
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN()

	case SQLite:
		dir := p.SQLiteDir
		if dir == "" {
			dir = "."
		}
		if database == "" {
			database = "main"
		}
		return filepath.Join(dir, database+".db") + "?_foreign_keys=on&_busy_timeout=5000"

	default:
		if database == "" {
			database = "postgres"
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Password),
			Host:   net.JoinHostPort(p.Host, strconv.Itoa(portOr(p.Port, 5432))),
			Path:   "/" + database,
		}
		q := url.Values{}
		sslmode := p.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		q.Set("sslmode", sslmode)
		u.RawQuery = q.Encode()
		return u.String()
	}
}

func portOr(port, def int) int {
	if port <= 0 {
		return def
	}
	return port
}
