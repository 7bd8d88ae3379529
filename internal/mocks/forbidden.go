package mocks

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrLiveCall is returned by every forbidden double. A simulated dispatch
// must never reach a data-plane client, so any invocation of these
// doubles is a test failure in itself.
var ErrLiveCall = fmt.Errorf("live AWS call attempted during simulation")

// S3API is the slice of the S3 data plane a live dispatcher would need
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

// EC2API is the slice of the EC2 data plane a live dispatcher would need
type EC2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// LambdaAPI is the slice of the Lambda data plane a live dispatcher would need
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
	CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
}

// ForbiddenS3Client records and fails any S3 invocation
type ForbiddenS3Client struct {
	Invocations []string
}

var _ S3API = (*ForbiddenS3Client)(nil)

func (f *ForbiddenS3Client) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.Invocations = append(f.Invocations, "ListBuckets")
	return nil, ErrLiveCall
}

func (f *ForbiddenS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.Invocations = append(f.Invocations, "PutObject")
	return nil, ErrLiveCall
}

func (f *ForbiddenS3Client) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	f.Invocations = append(f.Invocations, "DeleteBucket")
	return nil, ErrLiveCall
}

// ForbiddenEC2Client records and fails any EC2 invocation
type ForbiddenEC2Client struct {
	Invocations []string
}

var _ EC2API = (*ForbiddenEC2Client)(nil)

func (f *ForbiddenEC2Client) RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.Invocations = append(f.Invocations, "RunInstances")
	return nil, ErrLiveCall
}

func (f *ForbiddenEC2Client) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.Invocations = append(f.Invocations, "TerminateInstances")
	return nil, ErrLiveCall
}

// ForbiddenLambdaClient records and fails any Lambda invocation
type ForbiddenLambdaClient struct {
	Invocations []string
}

var _ LambdaAPI = (*ForbiddenLambdaClient)(nil)

func (f *ForbiddenLambdaClient) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.Invocations = append(f.Invocations, "Invoke")
	return nil, ErrLiveCall
}

func (f *ForbiddenLambdaClient) CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	f.Invocations = append(f.Invocations, "CreateFunction")
	return nil, ErrLiveCall
}
