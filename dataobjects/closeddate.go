package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	cache "github.com/patrickmn/go-cache"
	"github.com/rickb777/date"
)

// closed-date lookups are hot during schedule scans, memoize briefly
var closedDateCache = cache.New(1*time.Minute, 5*time.Minute)

// ClosedDate is a calendar day the whole operation does not run on
type ClosedDate struct {
	Date  date.Date
	Name  string
	Notes string
}

// GetClosedDates returns a slice with all registered closed dates
func GetClosedDates(node sqalx.Node) ([]*ClosedDate, error) {
	return getClosedDatesWithSelect(node, sdb.Select())
}

func getClosedDatesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*ClosedDate, error) {
	closedDates := []*ClosedDate{}

	tx, err := node.Beginx()
	if err != nil {
		return closedDates, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("closed_on", "name", "notes").
		From("closed_date").
		RunWith(tx).Query()
	if err != nil {
		return closedDates, fmt.Errorf("getClosedDatesWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var closedDate ClosedDate
		var closedOn time.Time
		err := rows.Scan(
			&closedOn,
			&closedDate.Name,
			&closedDate.Notes)
		if err != nil {
			return closedDates, fmt.Errorf("getClosedDatesWithSelect: %s", err)
		}
		closedDate.Date = date.NewAt(closedOn)
		closedDates = append(closedDates, &closedDate)
	}
	if err := rows.Err(); err != nil {
		return closedDates, fmt.Errorf("getClosedDatesWithSelect: %s", err)
	}
	return closedDates, nil
}

// GetClosedDate returns the ClosedDate for the given day
func GetClosedDate(node sqalx.Node, d date.Date) (*ClosedDate, error) {
	s := sdb.Select().
		Where(sq.Eq{"closed_on": d.UTC()})
	closedDates, err := getClosedDatesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(closedDates) == 0 {
		return nil, errors.New("ClosedDate not found")
	}
	return closedDates[0], nil
}

// IsDateClosed returns whether the operation is closed on the given day
func IsDateClosed(node sqalx.Node, d date.Date) (bool, error) {
	key := getCacheKey("closeddate", d.String())
	if closed, present := closedDateCache.Get(key); present {
		return closed.(bool), nil
	}
	_, err := GetClosedDate(node, d)
	if err != nil {
		if err.Error() == "ClosedDate not found" {
			closedDateCache.SetDefault(key, false)
			return false, nil
		}
		return false, err
	}
	closedDateCache.SetDefault(key, true)
	return true, nil
}

// Update adds or updates the closed date
func (closedDate *ClosedDate) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("closed_date").
		Columns("closed_on", "name", "notes").
		Values(closedDate.Date.UTC(), closedDate.Name, closedDate.Notes).
		Suffix("ON CONFLICT (closed_on) DO UPDATE SET name = ?, notes = ?",
			closedDate.Name, closedDate.Notes).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddClosedDate: " + err.Error())
	}
	closedDateCache.Delete(getCacheKey("closeddate", closedDate.Date.String()))
	return tx.Commit()
}

// Delete deletes the closed date
func (closedDate *ClosedDate) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("closed_date").
		Where(sq.Eq{"closed_on": closedDate.Date.UTC()}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveClosedDate: %s", err)
	}
	closedDateCache.Delete(getCacheKey("closeddate", closedDate.Date.String()))
	return tx.Commit()
}
