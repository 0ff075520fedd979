package channel

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles channel data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new channel repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new channel and its owner membership as one
// transaction; a channel never exists without an owner
func (r *Repository) Create(ctx context.Context, req *CreateChannelRequest, ownerID int64) (*Channel, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO channels (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`

	channel := &Channel{}
	err = tx.QueryRowContext(ctx, query, req.Name).Scan(
		&channel.ID,
		&channel.Name,
		&channel.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memberships (channel_id, user_id, role) VALUES ($1, $2, $3)`,
		channel.ID, ownerID, RoleOwner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return channel, nil
}

// GetByID retrieves a channel by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Channel, error) {
	query := `
		SELECT id, name, created_at
		FROM channels
		WHERE id = $1
	`

	channel := &Channel{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&channel.ID,
		&channel.Name,
		&channel.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// List retrieves channels ordered by creation
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Channel, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count channels: %w", err)
	}

	query := `
		SELECT id, name, created_at
		FROM channels
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel := &Channel{}
		if err := rows.Scan(&channel.ID, &channel.Name, &channel.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	return channels, total, nil
}

// AddMember adds a user to a channel with the given role
func (r *Repository) AddMember(ctx context.Context, channelID, userID int64, role MemberRole) (*Membership, error) {
	query := `
		INSERT INTO memberships (channel_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, channel_id, user_id, role, created_at
	`

	member := &Membership{}
	err := r.db.QueryRowContext(ctx, query, channelID, userID, role).Scan(
		&member.ID,
		&member.ChannelID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMember retrieves a specific member of a channel
func (r *Repository) GetMember(ctx context.Context, channelID, userID int64) (*Membership, error) {
	query := `
		SELECT m.id, m.channel_id, m.user_id, m.role, m.created_at, u.name, u.nickname
		FROM memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.channel_id = $1 AND m.user_id = $2
	`

	member := &Membership{}
	err := r.db.QueryRowContext(ctx, query, channelID, userID).Scan(
		&member.ID,
		&member.ChannelID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
		&member.Name,
		&member.Nickname,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMembers retrieves all members of a channel
func (r *Repository) GetMembers(ctx context.Context, channelID int64) ([]*Membership, error) {
	query := `
		SELECT m.id, m.channel_id, m.user_id, m.role, m.created_at, u.name, u.nickname
		FROM memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.channel_id = $1
		ORDER BY m.id
	`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		member := &Membership{}
		if err := rows.Scan(
			&member.ID,
			&member.ChannelID,
			&member.UserID,
			&member.Role,
			&member.CreatedAt,
			&member.Name,
			&member.Nickname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, nil
}

// ListRequests retrieves all pending join requests in a channel, in
// insertion order
func (r *Repository) ListRequests(ctx context.Context, channelID int64) ([]*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.channel_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM channel_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.channel_id = $1
		ORDER BY jr.id
	`

	return r.queryRequests(ctx, query, channelID)
}

// ListRequestsByRequestor retrieves the pending join requests a single user
// has in a channel (at most one, per the uniqueness constraint)
func (r *Repository) ListRequestsByRequestor(ctx context.Context, channelID, requestorID int64) ([]*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.channel_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM channel_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.channel_id = $1 AND jr.requestor_id = $2
		ORDER BY jr.id
	`

	return r.queryRequests(ctx, query, channelID, requestorID)
}

// GetRequest retrieves a join request by its ID, regardless of channel. The
// caller is responsible for checking the channel against the requested path.
func (r *Repository) GetRequest(ctx context.Context, requestID int64) (*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.channel_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM channel_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.id = $1
	`

	return r.scanRequest(r.db.QueryRowContext(ctx, query, requestID))
}

// GetRequestForUser retrieves the pending join request a user has in a
// channel, if any
func (r *Repository) GetRequestForUser(ctx context.Context, channelID, requestorID int64) (*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.channel_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM channel_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.channel_id = $1 AND jr.requestor_id = $2
	`

	return r.scanRequest(r.db.QueryRowContext(ctx, query, channelID, requestorID))
}

// CreateRequest inserts a new join request. The unique constraint on
// (channel_id, requestor_id) makes concurrent duplicate creates resolve to a
// single row; the loser gets (nil, nil) and should fetch the winner's row.
func (r *Repository) CreateRequest(ctx context.Context, channelID, requestorID int64, comments string) (*JoinRequest, error) {
	query := `
		INSERT INTO channel_join_requests (channel_id, requestor_id, comments)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_id, requestor_id) DO NOTHING
		RETURNING id, channel_id, requestor_id, comments, created_at
	`

	request := &JoinRequest{}
	err := r.db.QueryRowContext(ctx, query, channelID, requestorID, comments).Scan(
		&request.ID,
		&request.ChannelID,
		&request.RequestorID,
		&request.Comments,
		&request.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	return request, nil
}

// AcceptRequest adds the requestor as a channel member and removes the
// request, as one transaction. A concurrent accept/reject/cancel race
// resolves to one winner; the loser gets ErrRequestNotFound. If the
// membership insert fails the request is kept.
func (r *Repository) AcceptRequest(ctx context.Context, request *JoinRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM channel_join_requests WHERE id = $1`, request.ID)
	if err != nil {
		return fmt.Errorf("failed to delete join request: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memberships (channel_id, user_id, role) VALUES ($1, $2, $3)`,
		request.ChannelID, request.RequestorID, RoleMember,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteRequest removes a join request
func (r *Repository) DeleteRequest(ctx context.Context, requestID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM channel_join_requests WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete join request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}

func (r *Repository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*JoinRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	var requests []*JoinRequest
	for rows.Next() {
		request := &JoinRequest{}
		if err := rows.Scan(
			&request.ID,
			&request.ChannelID,
			&request.RequestorID,
			&request.Comments,
			&request.CreatedAt,
			&request.RequestorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, request)
	}

	return requests, nil
}

func (r *Repository) scanRequest(row *sql.Row) (*JoinRequest, error) {
	request := &JoinRequest{}
	err := row.Scan(
		&request.ID,
		&request.ChannelID,
		&request.RequestorID,
		&request.Comments,
		&request.CreatedAt,
		&request.RequestorName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}

	return request, nil
}
