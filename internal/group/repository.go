package group

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group and its creator's membership as one
// transaction; a group never exists without a member
func (r *Repository) Create(ctx context.Context, channelID int64, req *CreateGroupRequest, creatorID int64) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (channel_id, name)
		VALUES ($1, $2)
		RETURNING id, channel_id, name, created_at
	`

	group := &Group{}
	err = tx.QueryRowContext(ctx, query, channelID, req.Name).Scan(
		&group.ID,
		&group.ChannelID,
		&group.Name,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
		group.ID, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return group, nil
}

// GetByID retrieves a group by its ID, regardless of channel. The caller is
// responsible for checking the group's channel against the requested path.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `
		SELECT id, channel_id, name, created_at
		FROM groups
		WHERE id = $1
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.ChannelID,
		&group.Name,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByChannel retrieves all groups in a channel
func (r *Repository) ListByChannel(ctx context.Context, channelID int64) ([]*Group, error) {
	query := `
		SELECT id, channel_id, name, created_at
		FROM groups
		WHERE channel_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(&group.ID, &group.ChannelID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// AddMember adds a user to a group
func (r *Repository) AddMember(ctx context.Context, groupID, userID int64) (*Member, error) {
	query := `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		RETURNING id, group_id, user_id, created_at
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMember retrieves a specific member of a group
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*Member, error) {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.created_at, u.name, u.nickname
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
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

// GetMembers retrieves all members of a group
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.created_at, u.name, u.nickname
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.UserID,
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

// ListRequests retrieves all pending join requests for a group, in
// insertion order
func (r *Repository) ListRequests(ctx context.Context, groupID int64) ([]*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.group_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM group_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.group_id = $1
		ORDER BY jr.id
	`

	return r.queryRequests(ctx, query, groupID)
}

// ListRequestsByRequestor retrieves the pending join requests a single user
// has for a group (at most one, per the uniqueness constraint)
func (r *Repository) ListRequestsByRequestor(ctx context.Context, groupID, requestorID int64) ([]*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.group_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM group_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.group_id = $1 AND jr.requestor_id = $2
		ORDER BY jr.id
	`

	return r.queryRequests(ctx, query, groupID, requestorID)
}

// GetRequest retrieves a join request by its ID, regardless of group. The
// caller is responsible for checking the group against the requested path.
func (r *Repository) GetRequest(ctx context.Context, requestID int64) (*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.group_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM group_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.id = $1
	`

	return r.scanRequest(r.db.QueryRowContext(ctx, query, requestID))
}

// GetRequestForUser retrieves the pending join request a user has for a
// group, if any
func (r *Repository) GetRequestForUser(ctx context.Context, groupID, requestorID int64) (*JoinRequest, error) {
	query := `
		SELECT jr.id, jr.group_id, jr.requestor_id, jr.comments, jr.created_at, u.name
		FROM group_join_requests jr
		JOIN users u ON jr.requestor_id = u.id
		WHERE jr.group_id = $1 AND jr.requestor_id = $2
	`

	return r.scanRequest(r.db.QueryRowContext(ctx, query, groupID, requestorID))
}

// CreateRequest inserts a new join request. The unique constraint on
// (group_id, requestor_id) makes concurrent duplicate creates resolve to a
// single row; the loser gets (nil, nil) and should fetch the winner's row.
func (r *Repository) CreateRequest(ctx context.Context, groupID, requestorID int64, comments string) (*JoinRequest, error) {
	query := `
		INSERT INTO group_join_requests (group_id, requestor_id, comments)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, requestor_id) DO NOTHING
		RETURNING id, group_id, requestor_id, comments, created_at
	`

	request := &JoinRequest{}
	err := r.db.QueryRowContext(ctx, query, groupID, requestorID, comments).Scan(
		&request.ID,
		&request.GroupID,
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

// AcceptRequest adds the requestor as a group member and removes the
// request, as one transaction. A concurrent accept/reject/cancel race
// resolves to one winner; the loser gets ErrRequestNotFound. If the
// membership insert fails the request is kept.
func (r *Repository) AcceptRequest(ctx context.Context, request *JoinRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM group_join_requests WHERE id = $1`, request.ID)
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
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
		request.GroupID, request.RequestorID,
	)
	if err != nil {
		return fmt.Errorf("failed to create group membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteRequest removes a join request
func (r *Repository) DeleteRequest(ctx context.Context, requestID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_join_requests WHERE id = $1`, requestID)
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
			&request.GroupID,
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
		&request.GroupID,
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
