package storage

import sq "github.com/Masterminds/squirrel"

// Dialect captures what differs between the supported SQL backends.
type Dialect struct {
	Name        string
	Driver      string
	placeholder sq.PlaceholderFormat
	schema      string
}

var (
	// Postgres talks to PostgreSQL through pgx's database/sql driver.
	Postgres = Dialect{Name: "postgres", Driver: "pgx", placeholder: sq.Dollar, schema: postgresSchema}
	// SQLite stores everything in a single file, handy for small deployments.
	SQLite = Dialect{Name: "sqlite", Driver: "sqlite3", placeholder: sq.Question, schema: sqliteSchema}
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	excerpt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	author TEXT NOT NULL,
	featured_image TEXT NOT NULL DEFAULT '',
	published BOOLEAN NOT NULL DEFAULT FALSE,
	published_at TIMESTAMPTZ,
	read_time INTEGER NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	likes INTEGER NOT NULL DEFAULT 0,
	seo_title TEXT NOT NULL DEFAULT '',
	seo_description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published, published_at);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

CREATE TABLE IF NOT EXISTS leads (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	business_type TEXT NOT NULL DEFAULT '',
	service_type TEXT NOT NULL DEFAULT '',
	budget TEXT NOT NULL DEFAULT '',
	timeline TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	follow_up_date TIMESTAMPTZ,
	converted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS services (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	subtitle TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	features TEXT NOT NULL DEFAULT '[]',
	pricing TEXT NOT NULL DEFAULT '{}',
	timeline TEXT NOT NULL DEFAULT '',
	technologies TEXT NOT NULL DEFAULT '[]',
	icon TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT 'primary',
	popular BOOLEAN NOT NULL DEFAULT FALSE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analytics (
	id BIGSERIAL PRIMARY KEY,
	path TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referer TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	device TEXT NOT NULL DEFAULT '',
	ts TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_ts ON analytics(ts);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	excerpt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	author TEXT NOT NULL,
	featured_image TEXT NOT NULL DEFAULT '',
	published BOOLEAN NOT NULL DEFAULT 0,
	published_at TIMESTAMP,
	read_time INTEGER NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	likes INTEGER NOT NULL DEFAULT 0,
	seo_title TEXT NOT NULL DEFAULT '',
	seo_description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published, published_at);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	business_type TEXT NOT NULL DEFAULT '',
	service_type TEXT NOT NULL DEFAULT '',
	budget TEXT NOT NULL DEFAULT '',
	timeline TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	follow_up_date TIMESTAMP,
	converted_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS services (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	subtitle TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	features TEXT NOT NULL DEFAULT '[]',
	pricing TEXT NOT NULL DEFAULT '{}',
	timeline TEXT NOT NULL DEFAULT '',
	technologies TEXT NOT NULL DEFAULT '[]',
	icon TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT 'primary',
	popular BOOLEAN NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS analytics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referer TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	device TEXT NOT NULL DEFAULT '',
	ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_ts ON analytics(ts);
`
