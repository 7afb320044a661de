package postgres

const insertInteractionSQL = `
INSERT INTO user_interactions (id, user_id, event_type, item_id, item_type, tags, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const listByUserSQL = `
SELECT id, user_id, event_type, item_id, item_type, tags, created_at
FROM user_interactions
WHERE user_id = $1
ORDER BY created_at ASC
`

const listUserIDsSQL = `
SELECT DISTINCT user_id FROM user_interactions
`

const getProfileSQL = `
SELECT tag, score FROM user_tag_affinity WHERE user_id = $1
`

const deleteScoresSQL = `
DELETE FROM user_tag_affinity WHERE user_id = $1
`

const insertScoreSQL = `
INSERT INTO user_tag_affinity (user_id, tag, score, updated_at)
VALUES ($1, $2, $3, $4)
`

const listByTagsSQL = `
SELECT id, name, price, thumbnail_url, tags, created_at
FROM products
WHERE tags && $1
ORDER BY created_at DESC, id ASC
LIMIT $2
`

const listLatestSQL = `
SELECT id, name, price, thumbnail_url, tags, created_at
FROM products
ORDER BY created_at DESC, id ASC
LIMIT $1
`
