package models

import "slices"

type Career string

const (
	CareerJunior Career = "JUNIOR"
	CareerMiddle Career = "MIDDLE"
	CareerSenior Career = "SENIOR"
)

func (c Career) Valid() bool {
	return slices.Contains([]Career{CareerJunior, CareerMiddle, CareerSenior}, c)
}

type Field string

const (
	FieldBackend  Field = "BACKEND"
	FieldFrontend Field = "FRONTEND"
	FieldMobile   Field = "MOBILE"
	FieldDevops   Field = "DEVOPS"
	FieldData     Field = "DATA"
	FieldDesign   Field = "DESIGN"
)

func (f Field) Valid() bool {
	return slices.Contains([]Field{FieldBackend, FieldFrontend, FieldMobile, FieldDevops, FieldData, FieldDesign}, f)
}

type Mbti string

var mbtis = []Mbti{
	"ISTJ", "ISFJ", "INFJ", "INTJ",
	"ISTP", "ISFP", "INFP", "INTP",
	"ESTP", "ESFP", "ENFP", "ENTP",
	"ESTJ", "ESFJ", "ENFJ", "ENTJ",
}

func (m Mbti) Valid() bool {
	return slices.Contains(mbtis, m)
}

type MemberRole string

const (
	RoleMember MemberRole = "ROLE_MEMBER"
	RoleAdmin  MemberRole = "ROLE_ADMIN"
)

type Topic string

const (
	TopicAI        Topic = "AI"
	TopicBackend   Topic = "BACKEND"
	TopicFrontend  Topic = "FRONTEND"
	TopicMobile    Topic = "MOBILE"
	TopicDevops    Topic = "DEVOPS"
	TopicData      Topic = "DATA"
	TopicInterview Topic = "INTERVIEW"
)

func (t Topic) Valid() bool {
	return slices.Contains([]Topic{TopicAI, TopicBackend, TopicFrontend, TopicMobile, TopicDevops, TopicData, TopicInterview}, t)
}

type Region string

const (
	RegionOnline  Region = "ONLINE"
	RegionSeoul   Region = "SEOUL"
	RegionBusan   Region = "BUSAN"
	RegionDaegu   Region = "DAEGU"
	RegionIncheon Region = "INCHEON"
	RegionGwangju Region = "GWANGJU"
	RegionDaejeon Region = "DAEJEON"
	RegionUlsan   Region = "ULSAN"
	RegionJeju    Region = "JEJU"
)

func (r Region) Valid() bool {
	return slices.Contains([]Region{
		RegionOnline, RegionSeoul, RegionBusan, RegionDaegu, RegionIncheon,
		RegionGwangju, RegionDaejeon, RegionUlsan, RegionJeju,
	}, r)
}

type StudyGroupMemberRole string

const (
	StudyLeader    StudyGroupMemberRole = "LEADER"
	StudyApplicant StudyGroupMemberRole = "APPLICANT"
	StudyMember    StudyGroupMemberRole = "MEMBER"
)
