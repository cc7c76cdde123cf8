package mysql

// created_at is only set on first insert; re-imports keep a listing's age.
const upsertListingSQL = `
INSERT INTO listings
  (id, name, logo, reward, category, aff_link, end_date, custom_instructions, eligible_countries, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name                = VALUES(name),
  logo                = VALUES(logo),
  reward              = VALUES(reward),
  category            = VALUES(category),
  aff_link            = VALUES(aff_link),
  end_date            = VALUES(end_date),
  custom_instructions = VALUES(custom_instructions),
  eligible_countries  = VALUES(eligible_countries),
  updated_at          = CURRENT_TIMESTAMP(3)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listingColumns = `
  id, name, logo, reward, category, aff_link,
  end_date, custom_instructions, eligible_countries, created_at`

// Newest first; id breaks ties so the order is stable across reads.
const listListingsSQL = `SELECT` + listingColumns + `
FROM listings
ORDER BY created_at DESC, id DESC
LIMIT ?`

const listListingsByCategorySQL = `SELECT` + listingColumns + `
FROM listings
WHERE category = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`

const getListingSQL = `SELECT` + listingColumns + `
FROM listings
WHERE id = ?`

const countSinceSQL = `
SELECT COUNT(*), COALESCE(SUM(created_at >= ?), 0)
FROM listings`
