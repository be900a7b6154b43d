package mysql

// Multi-row upsert prefix; rows are appended as value tuples.
// display_on_website is deliberately absent from the update list:
// curation state is manager-owned and must survive re-ingestion.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (id, property_id, guest_name, rating, public_review, channel, review_type, `status`, display_on_website, categories, submitted_at, raw)\n" +
	"VALUES "

const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  property_id   = VALUES(property_id),\n" +
	"  guest_name    = VALUES(guest_name),\n" +
	"  rating        = VALUES(rating),\n" +
	"  public_review = VALUES(public_review),\n" +
	"  channel       = VALUES(channel),\n" +
	"  review_type   = VALUES(review_type),\n" +
	"  `status`      = VALUES(`status`),\n" +
	"  categories    = VALUES(categories),\n" +
	"  submitted_at  = VALUES(submitted_at),\n" +
	"  raw           = VALUES(raw),\n" +
	"  updated_at    = CURRENT_TIMESTAMP\n"

const setDisplaySQL = `
UPDATE reviews SET display_on_website = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

const insertMissSQL = `
INSERT INTO ingest_misses (endpoint, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const reviewColumns = "id, property_id, guest_name, rating, public_review, channel, review_type, `status`, display_on_website, categories, submitted_at, raw"

const getReviewSQL = "SELECT " + reviewColumns + " FROM reviews WHERE id = ?"

// Newest first; aligns with the index on (property_id, submitted_at, id).
const listAllReviewsSQL = "SELECT " + reviewColumns + " FROM reviews ORDER BY submitted_at DESC, id DESC"
