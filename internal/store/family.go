package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bywater/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.RotaCycleWeeks, &f.RotaStartDate, &f.InviteCode, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFamilyMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const familyCols = `id, name, rota_cycle_weeks, rota_start_date, invite_code, created_at, updated_at`
const familyMemberCols = `id, family_id, user_id, role, created_at`

func (s *FamilyStore) Create(name string, rotaCycleWeeks int, rotaStartDate, inviteCode string) (*model.Family, error) {
	result, err := s.db.Exec(
		`INSERT INTO families (name, rota_cycle_weeks, rota_start_date, invite_code) VALUES (?, ?, ?, ?)`,
		name, rotaCycleWeeks, rotaStartDate, inviteCode,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) GetByInviteCode(code string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE invite_code = ?`, code)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family by invite code: %w", err)
	}
	return f, nil
}

// UpdateRotaConfig sets the family's rotation cycle length and anchor date.
func (s *FamilyStore) UpdateRotaConfig(id int64, rotaCycleWeeks int, rotaStartDate string) (*model.Family, error) {
	_, err := s.db.Exec(
		`UPDATE families SET rota_cycle_weeks = ?, rota_start_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		rotaCycleWeeks, rotaStartDate, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update rota config: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}

func (s *FamilyStore) AddMember(familyID, userID int64, role string) (*model.FamilyMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)`,
		familyID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+familyMemberCols+` FROM family_members WHERE id = ?`, id)
	return scanFamilyMember(row)
}

func (s *FamilyStore) RemoveMember(familyID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *FamilyStore) GetMember(familyID, userID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(
		`SELECT `+familyMemberCols+` FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	m, err := scanFamilyMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) ListMembers(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(
		`SELECT `+familyMemberCols+` FROM family_members WHERE family_id = ? ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanFamilyMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListMembershipsForUser returns the user's family memberships joined with
// each family's rota config, ordered by membership id. The first entry is
// the user's primary family.
func (s *FamilyStore) ListMembershipsForUser(userID int64) ([]model.Membership, error) {
	rows, err := s.db.Query(`
		SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.created_at,
		       f.id, f.name, f.rota_cycle_weeks, f.rota_start_date, f.invite_code, f.created_at, f.updated_at
		FROM family_members fm
		JOIN families f ON f.id = fm.family_id
		WHERE fm.user_id = ?
		ORDER BY fm.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []model.Membership
	for rows.Next() {
		var ms model.Membership
		err := rows.Scan(
			&ms.Member.ID, &ms.Member.FamilyID, &ms.Member.UserID, &ms.Member.Role, &ms.Member.CreatedAt,
			&ms.Family.ID, &ms.Family.Name, &ms.Family.RotaCycleWeeks, &ms.Family.RotaStartDate,
			&ms.Family.InviteCode, &ms.Family.CreatedAt, &ms.Family.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, ms)
	}
	return memberships, rows.Err()
}

// SharesFamily reports whether two users belong to at least one common family.
func (s *FamilyStore) SharesFamily(userA, userB int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM family_members a
		JOIN family_members b ON a.family_id = b.family_id
		WHERE a.user_id = ? AND b.user_id = ?`,
		userA, userB,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check shared family: %w", err)
	}
	return count > 0, nil
}
