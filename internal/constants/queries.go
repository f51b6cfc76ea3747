package constants

const (
	GetUserByID = `
	SELECT * FROM users WHERE id = $1
	`

	GetUserPoints = `
	SELECT user_id, points, last_updated FROM user_points WHERE user_id = $1
	`

	UpsertUserPoints = `
	INSERT INTO user_points (user_id, points, last_updated)
	VALUES ($1, $2, now())
	ON CONFLICT (user_id)
	DO UPDATE SET points = user_points.points + EXCLUDED.points, last_updated = now()
	RETURNING points
	`

	// Guarded deduct: affects zero rows when the balance is short, which keeps
	// the balance from ever going negative without a SELECT-then-UPDATE race.
	DeductUserPoints = `
	UPDATE user_points
	SET points = points - $2, last_updated = now()
	WHERE user_id = $1 AND points >= $2
	RETURNING points
	`

	InsertPointTransaction = `
	INSERT INTO point_transactions (user_id, type, amount, description, related_id, metadata)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
	`

	ListPointTransactions = `
	SELECT id, user_id, type, amount, description, related_id, metadata, created_at
	FROM point_transactions
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`

	CountPointTransactions = `
	SELECT COUNT(*) FROM point_transactions WHERE user_id = $1
	`
)
