package sql

import (
	"regexp"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// uriRe is the connection URI grammar:
// scheme://[user[:password]@]host[:port]/database
var uriRe = regexp.MustCompile(`^(?P<type>\w+)://(((?P<user>[\w\-]+)?(:(?P<pass>[^:]+))?@)?(?P<host>[\w\-\.]+)(:(?P<port>\d+))?)?/(?P<db>.+)$`)

// URI holds the parts of a connection URI.
type URI struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// ParseURI splits a connection URI into its parts. A URI that does not match
// the grammar yields the zero URI; callers detect it with Valid.
func ParseURI(s string) URI {
	m := uriRe.FindStringSubmatch(s)
	if m == nil {
		return URI{}
	}
	group := func(name string) string {
		return m[uriRe.SubexpIndex(name)]
	}
	u := URI{
		Scheme:   group("type"),
		User:     group("user"),
		Password: group("pass"),
		Host:     group("host"),
		Database: group("db"),
	}
	if p := group("port"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return URI{}
		}
		u.Port = port
	}
	return u
}

// Valid reports whether the URI names a database.
func (u URI) Valid() bool { return u.Database != "" }

// DSN renders the URI as a go-sql-driver/mysql data source name. The scheme
// is accepted for any value; the dialect is always MySQL.
func (u URI) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = u.User
	cfg.Passwd = u.Password
	cfg.DBName = u.Database
	cfg.ParseTime = true
	if u.Host != "" {
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if u.Port != 0 {
			cfg.Addr += ":" + strconv.Itoa(u.Port)
		}
	}
	return cfg.FormatDSN()
}

// String renders the URI without its password.
func (u URI) String() string {
	if !u.Valid() {
		return ""
	}
	s := u.Scheme + "://"
	if u.User != "" {
		s += u.User
		if u.Password != "" {
			s += ":***"
		}
		s += "@"
	}
	s += u.Host
	if u.Port != 0 {
		s += ":" + strconv.Itoa(u.Port)
	}
	return s + "/" + u.Database
}
