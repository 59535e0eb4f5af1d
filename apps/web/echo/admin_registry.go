package echoweb

import (
	"context"

	"github.com/simplesis/simplesis/core/user"
)

// adminRegistry lists the entities manageable from the admin screens, in menu order.
func adminRegistry() []adminModel {
	return []adminModel{
		{
			Name:       "users",
			Title:      "Users",
			Columns:    []string{"ID", "Email", "Name", "Staff", "Active", "School", "Last login"},
			Searchable: true,
			rows: func(ctx context.Context, s *Server, q adminQuery) ([]adminRow, error) {
				users, err := s.deps.UserSvc.Query(ctx, &user.QueryFilter{Search: q.Search}, q.Orderings)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(users))
				for _, u := range users {
					rows = append(rows, adminRow{u.ID, []interface{}{
						u.ID, u.Email, u.FullName(), yesNo(u.IsStaff), yesNo(u.IsActive), optID(u.SchoolID), formatDateTime(u.LastLogin),
					}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.UserSvc.Delete(ctx, id)
			},
		},
		{
			Name:    "account-types",
			Title:   "Account types",
			Columns: []string{"ID", "Name"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				types, err := s.deps.UserSvc.QueryAccountTypes(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(types))
				for _, at := range types {
					rows = append(rows, adminRow{at.ID, []interface{}{at.ID, at.Name}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.UserSvc.DeleteAccountTypes(ctx, id)
			},
		},
		{
			Name:    "locations",
			Title:   "Locations",
			Columns: []string{"ID", "Address", "City", "State", "Postcode"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				locs, err := s.deps.SchoolSvc.QueryLocations(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(locs))
				for _, l := range locs {
					addr := l.Address1
					if l.Address2 != "" {
						addr += ", " + l.Address2
					}
					rows = append(rows, adminRow{l.ID, []interface{}{l.ID, addr, l.City, l.State, l.Postcode}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.SchoolSvc.DeleteLocations(ctx, id)
			},
		},
		{
			Name:    "schools",
			Title:   "Schools",
			Columns: []string{"ID", "Name", "Location"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				schools, err := s.deps.SchoolSvc.QuerySchools(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(schools))
				for _, sch := range schools {
					rows = append(rows, adminRow{sch.ID, []interface{}{sch.ID, sch.Name, sch.LocationID}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.SchoolSvc.DeleteSchools(ctx, id)
			},
		},
		{
			Name:    "venues",
			Title:   "Venues",
			Columns: []string{"ID", "Name", "Location"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				venues, err := s.deps.SchoolSvc.QueryVenues(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(venues))
				for _, v := range venues {
					rows = append(rows, adminRow{v.ID, []interface{}{v.ID, v.Name, v.LocationID}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.SchoolSvc.DeleteVenues(ctx, id)
			},
		},
		{
			Name:    "lookup-types",
			Title:   "Lookup code types",
			Columns: []string{"ID", "Code", "Description"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				types, err := s.deps.LookupSvc.QueryTypes(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(types))
				for _, ct := range types {
					rows = append(rows, adminRow{ct.ID, []interface{}{ct.ID, ct.Code, ct.Description}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.LookupSvc.DeleteTypes(ctx, id)
			},
		},
		{
			Name:    "lookup-codes",
			Title:   "Lookup codes",
			Columns: []string{"ID", "Type", "Code", "Name"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				codes, err := s.deps.LookupSvc.QueryCodes(ctx, nil)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(codes))
				for _, c := range codes {
					rows = append(rows, adminRow{c.ID, []interface{}{c.ID, c.TypeCode, c.Code, c.Name}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.LookupSvc.DeleteCodes(ctx, id)
			},
		},
		{
			Name:    "activities",
			Title:   "Activities",
			Columns: []string{"ID", "Name", "School", "Category", "Starts", "Venue"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				acts, err := s.deps.ActivitySvc.Query(ctx, nil)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(acts))
				for _, a := range acts {
					rows = append(rows, adminRow{a.ID, []interface{}{a.ID, a.Name, a.SchoolID, a.CategoryName, formatDateTime(a.StartAt), a.VenueName}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.ActivitySvc.Delete(ctx, id)
			},
		},
		{
			Name:    "attendees",
			Title:   "Activity attendees",
			Columns: []string{"ID", "Activity", "User", "Type", "Organiser", "Approved by", "Attended"},
			rows: func(ctx context.Context, s *Server, _ adminQuery) ([]adminRow, error) {
				ats, err := s.deps.ActivitySvc.QueryAttendees(ctx, nil)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(ats))
				for _, at := range ats {
					rows = append(rows, adminRow{at.ID, []interface{}{
						at.ID, at.ActivityID, at.UserName, at.AttendeeType, yesNo(at.IsOrganiser), optID(at.ApprovedByID), yesNo(at.HasAttended()),
					}})
				}
				return rows, nil
			},
			delete: func(ctx context.Context, s *Server, id int64) (int, error) {
				return s.deps.ActivitySvc.DeleteAttendees(ctx, id)
			},
		},
	}
}
