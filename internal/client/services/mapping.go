package services

import "github.com/dmitrijs2005/gophsync/internal/client/models"

func createVault(d models.VaultDTO) *models.Vault {
	v := models.NewVault()
	applyVault(v, d)
	return v
}

func applyVault(v *models.Vault, d models.VaultDTO) {
	v.Name = d.Name
}

func createEntry(d models.EntryDTO) *models.Entry {
	e := models.NewEntry()
	applyEntry(e, d)
	return e
}

func applyEntry(e *models.Entry, d models.EntryDTO) {
	e.Title = d.Title
	e.Kind = d.Kind
	e.Payload = append([]byte(nil), d.Payload...)
}

func linkEntry(e *models.Entry, _ models.EntryDTO, v *models.Vault) {
	e.VaultID = v.ID
}

func createMember(d models.MemberDTO) *models.Member {
	m := models.NewMember()
	applyMember(m, d)
	return m
}

func applyMember(m *models.Member, d models.MemberDTO) {
	m.Username = d.Username
	m.Role = d.Role
}

func linkMember(m *models.Member, _ models.MemberDTO, v *models.Vault) {
	m.VaultID = v.ID
}

func createFile(d models.FileDTO) *models.File {
	f := models.NewFile()
	applyFile(f, d)
	return f
}

func applyFile(f *models.File, d models.FileDTO) {
	f.Name = d.Name
	f.StorageKey = d.StorageKey
	f.Size = d.Size
}

func linkFile(f *models.File, _ models.FileDTO, e *models.Entry) {
	f.EntryID = e.ID
}
